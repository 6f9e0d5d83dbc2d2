package config

// Config is the top-level configuration structure for wst.
type Config struct {
	Test          TestConfig          `yaml:"test"`
	ProductGroups map[string][]string `yaml:"productGroups,omitempty"`
}

// TestConfig holds settings for the test command.
type TestConfig struct {
	// EditableProductDependencies lists product (or product group) names
	// that should be re-installed in editable mode after an environment is
	// developed, so local source edits take effect without reinstalling.
	EditableProductDependencies []string `yaml:"editableProductDependencies,omitempty"`
}

// DefaultConfig returns the built-in configuration: no editable
// dependencies and no product groups.
func DefaultConfig() Config {
	return Config{}
}
