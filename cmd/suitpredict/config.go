package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/suitpredict/internal/config"
)

var configYAML bool

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify suitpredict configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Keys use dot notation, e.g. engine.lag or session.time_zone. List values
are comma separated: config schedule.report_hours 0,6,12,18

Configuration is stored at ~/.config/suitpredict/config.yaml
Project-specific overrides can be placed in .suitpredict.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		switch len(args) {
		case 0:
			if configYAML {
				return dumpConfigYAML(cfg)
			}
			return displayAllConfig(cfg)
		case 1:
			return displayConfigKey(cfg, args[0])
		default:
			return setConfigKey(cfg, args[0], args[1])
		}
	},
}

func init() {
	configCmd.Flags().BoolVar(&configYAML, "yaml", false, "Print the effective configuration as YAML")
}

// configTree returns the effective configuration as nested maps, with
// the bot token masked.
func configTree(cfg *config.Config) (map[string]any, error) {
	masked := *cfg
	if masked.Telegram.Token != "" {
		masked.Telegram.Token = config.MaskBotToken(masked.Telegram.Token)
	}
	data, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	tree := map[string]any{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return tree, nil
}

func dumpConfigYAML(cfg *config.Config) error {
	tree, err := configTree(cfg)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(tree)
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) error {
	tree, err := configTree(cfg)
	if err != nil {
		return err
	}
	flat := map[string]string{}
	flatten("", tree, flat)

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %s\n", k, flat[k])
	}
	return nil
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) error {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) error {
	current, err := lookupKey(cfg, key)
	if err != nil {
		return err
	}
	typed, err := parseConfigValue(key, current, value)
	if err != nil {
		return err
	}
	if err := config.Save(strings.ToLower(key), typed); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	v, err := lookupKey(cfg, key)
	if err != nil {
		return "", err
	}
	return formatValue(v), nil
}

func lookupKey(cfg *config.Config, key string) (any, error) {
	tree, err := configTree(cfg)
	if err != nil {
		return nil, err
	}
	var node any = tree
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unknown configuration key: %s", key)
		}
		if node, ok = m[part]; !ok {
			return nil, fmt.Errorf("unknown configuration key: %s", key)
		}
	}
	if _, ok := node.(map[string]any); ok {
		return nil, fmt.Errorf("%s is a section, not a key", key)
	}
	return node, nil
}

// parseConfigValue converts raw to the type of the current value.
func parseConfigValue(key string, current any, raw string) (any, error) {
	switch cur := current.(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean for %s: %w", key, err)
		}
		return b, nil
	case int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %w", key, err)
		}
		return n, nil
	case []any:
		var out []any
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if len(cur) > 0 {
				if _, isInt := cur[0].(int); isInt {
					n, err := strconv.Atoi(part)
					if err != nil {
						return nil, fmt.Errorf("invalid number %q for %s: %w", part, key, err)
					}
					out = append(out, n)
					continue
				}
			}
			out = append(out, part)
		}
		return out, nil
	case string:
		if _, err := time.ParseDuration(cur); err == nil {
			if _, err := time.ParseDuration(raw); err != nil {
				return nil, fmt.Errorf("invalid duration for %s: %w", key, err)
			}
		}
		return raw, nil
	default:
		return raw, nil
	}
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = formatValue(v)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "(not set)"
	case string:
		if val == "" {
			return "(not set)"
		}
		return val
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
