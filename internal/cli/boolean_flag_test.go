package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{
			name:         "defaults_to_false",
			defaultValue: false,
			arguments:    []string{},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_without_value",
			defaultValue: false,
			arguments:    []string{"--feature"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "sets_false_with_equals",
			defaultValue: true,
			arguments:    []string{"--feature=false"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_false_with_no_literal",
			defaultValue: true,
			arguments:    []string{"--feature", "no"},
			expected:     false,
			expectError:  false,
		},
		{
			name:         "sets_true_with_on_literal",
			defaultValue: false,
			arguments:    []string{"--feature", "on"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "sets_true_with_shorthand",
			defaultValue: false,
			arguments:    []string{"-f"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "keeps_path_after_flag",
			defaultValue: false,
			arguments:    []string{"--feature", "./src"},
			expected:     true,
			expectError:  false,
		},
		{
			name:         "ignores_non_boolean_trailing_value",
			defaultValue: false,
			arguments:    []string{"--feature", "maybe"},
			expected:     true,
			expectError:  false,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			flagSet := command.Flags()
			flagValue := !testCase.defaultValue
			registerBooleanFlag(flagSet, &flagValue, "feature", "f", testCase.defaultValue, "toggle feature behaviour")
			normalizedArguments := normalizeBooleanFlagArguments(command, testCase.arguments)
			parseErr := command.ParseFlags(normalizedArguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if len(testCase.arguments) == 0 && flagValue != testCase.defaultValue {
				t.Fatalf("expected default %t, got %t", testCase.defaultValue, flagValue)
			}
			if flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestRootCommandBooleanShorthands(t *testing.T) {
	testCases := []struct {
		name               string
		arguments          []string
		expectedTrue       []string
		expectedPositional []string
	}{
		{name: "long_shorthand", arguments: []string{"-l"}, expectedTrue: []string{longFlagName}},
		{name: "tree_shorthand", arguments: []string{"-t"}, expectedTrue: []string{treeFlagName}},
		{name: "all_shorthand", arguments: []string{"-a"}, expectedTrue: []string{allFlagName}},
		{name: "combined_shorthands", arguments: []string{"-lta"}, expectedTrue: []string{longFlagName, treeFlagName, allFlagName}},
		{name: "shorthand_keeps_path", arguments: []string{"-t", "./src"}, expectedTrue: []string{treeFlagName}, expectedPositional: []string{"./src"}},
		{name: "long_name_with_literal", arguments: []string{"--all", "yes", "-l"}, expectedTrue: []string{allFlagName, longFlagName}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := createRootCommand(testDependencies(nil))
			parseErr := command.ParseFlags(normalizeBooleanFlagArguments(command, testCase.arguments))
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			for _, flagName := range []string{longFlagName, treeFlagName, allFlagName} {
				expected := "false"
				for _, trueName := range testCase.expectedTrue {
					if trueName == flagName {
						expected = "true"
					}
				}
				if actual := command.Flags().Lookup(flagName).Value.String(); actual != expected {
					t.Fatalf("flag %s: expected %s, got %s", flagName, expected, actual)
				}
			}
			if positional := command.Flags().Args(); len(positional) != len(testCase.expectedPositional) ||
				(len(positional) > 0 && positional[0] != testCase.expectedPositional[0]) {
				t.Fatalf("expected positional arguments %v, got %v", testCase.expectedPositional, positional)
			}
		})
	}
}
