package monitoring

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of a combination rules file.
type rulesFile struct {
	Rules []*CombinationRule `yaml:"rules"`
}

// LoadCombinationRules loads and validates combination rules from YAML bytes.
func LoadCombinationRules(data []byte) ([]*CombinationRule, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules YAML: %w", err)
	}

	for i, rule := range file.Rules {
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("invalid rule at index %d: %w", i, err)
		}
	}

	return file.Rules, nil
}

// LoadCombinationRulesFromFile loads combination rules from a YAML file.
func LoadCombinationRulesFromFile(path string) ([]*CombinationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return LoadCombinationRules(data)
}

// reloadDebounce coalesces bursts of write events from editors that save
// in multiple syscalls.
const reloadDebounce = 250 * time.Millisecond

// WatchRules reloads the rule set whenever the rules file changes, until the
// context is canceled. The parent directory is watched rather than the file
// itself so atomic rename-style saves are picked up. A file that fails to
// parse leaves the previous rule set active.
func WatchRules(ctx context.Context, path string, set *RuleSet) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			rules, err := LoadCombinationRulesFromFile(path)
			if err != nil {
				log.Printf("rules reload failed, keeping previous set: %v", err)
				continue
			}
			set.Replace(rules)
			log.Printf("combination rules reloaded: %d rules from %s", len(rules), path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("rules watcher error: %v", err)
		}
	}
}
