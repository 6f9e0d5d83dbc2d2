package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"wst/internal/config"
	"wst/pkg/logging"
)

const backgroundStateFile = "background.json"

// backgroundTask records a command that was detached into the background.
type backgroundTask struct {
	PID     int       `json:"pid"`
	Task    string    `json:"task"`
	Started time.Time `json:"started"`
}

func newWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait [command...]",
		Short: "Run a command in the background, or show running background tasks",
		Long: `With arguments, detach the given command into the background and record
it. Without arguments, show the recorded background tasks that are still
running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return startBackgroundTask(args)
			}
			return showBackgroundTasks(cmd)
		},
	}
}

func startBackgroundTask(args []string) error {
	task := strings.Join(args, " ")

	child := exec.Command("bash", "-c", task)
	// Detach into its own session so it survives this process.
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start %q: %w", task, err)
	}

	tasks, _ := loadBackgroundTasks()
	tasks = append(tasks, backgroundTask{PID: child.Process.Pid, Task: task, Started: time.Now()})
	if err := saveBackgroundTasks(tasks); err != nil {
		logging.Warn("wait", "Could not record background task: %v", err)
	}

	logging.Info("wait", "Started %q with pid %d", task, child.Process.Pid)
	return nil
}

func showBackgroundTasks(cmd *cobra.Command) error {
	tasks, err := loadBackgroundTasks()
	if err != nil {
		return err
	}

	var alive []backgroundTask
	for _, task := range tasks {
		if processAlive(task.PID) {
			alive = append(alive, task)
		}
	}
	// Prune finished tasks from the state file.
	if len(alive) != len(tasks) {
		if err := saveBackgroundTasks(alive); err != nil {
			logging.Warn("wait", "Could not update background task state: %v", err)
		}
	}

	if len(alive) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No background tasks running")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"PID", "TASK", "STARTED"})
	for _, task := range alive {
		t.AppendRow(table.Row{task.PID, task.Task, task.Started.Format(time.DateTime)})
	}
	t.Render()
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func backgroundStatePath() (string, error) {
	dir, err := config.GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, backgroundStateFile), nil
}

func loadBackgroundTasks() ([]backgroundTask, error) {
	path, err := backgroundStatePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var tasks []backgroundTask
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("corrupt background task state in %s: %w", path, err)
	}
	return tasks, nil
}

func saveBackgroundTasks(tasks []backgroundTask) error {
	path, err := backgroundStatePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
