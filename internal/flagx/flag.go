// Package flagx lets several components pick their own flags out of the same
// command line without tripping over each other's unknown flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of args made of allowed flags and their values.
//
// Both "-flag value" and "-flag=value" forms are recognised. The standard flag
// package treats "--flag" like "-flag", so an allowed "-c" also matches "--c".
// A following argument is taken as the value unless it starts with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}
	isAllowed := func(name string) bool {
		if _, ok := allowed[name]; ok {
			return true
		}
		if strings.HasPrefix(name, "--") {
			_, ok := allowed[name[1:]]
			return ok
		}
		return false
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if isAllowed(name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		if isAllowed(arg) {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFile extracts the configuration file path given with -c or -config.
// The last occurrence wins; an empty string means no file was requested.
func ConfigFile(args []string) string {
	var config string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}
