package registry

import (
	"fmt"
	"strings"

	"github.com/jshumphrey/full-course-yellow/internal/config"
	"github.com/jshumphrey/full-course-yellow/internal/models"
)

// Classifier strategy names. The set is closed: a monitored guild's config
// names one of these, and the behavior is resolved through NewClassifierSet
// rather than stored as an arbitrary function reference.
const (
	ClassifierAlways      = "always"
	ClassifierNever       = "never"
	ClassifierPlaceholder = "placeholder"
	ClassifierRF1         = "rf1_permanent"
)

// BanClassifier decides whether a ban event in a monitored guild should
// produce an alert. Used by the automatic ban-detection path.
type BanClassifier struct {
	name string
	fn   func(models.BanEvent) bool
}

// Name returns the strategy name this classifier was resolved from.
func (c BanClassifier) Name() string {
	return c.name
}

// Classify reports whether the ban event should raise an alert.
func (c BanClassifier) Classify(e models.BanEvent) bool {
	return c.fn(e)
}

// IsPlaceholder reports whether this is the stand-in classifier. An enabled
// monitored guild carrying it gets a startup warning.
func (c BanClassifier) IsPlaceholder() bool {
	return c.name == ClassifierPlaceholder
}

// ClassifierSet resolves strategy names to classifiers, with the rule
// tunables taken from configuration.
type ClassifierSet struct {
	byName map[string]BanClassifier
}

// NewClassifierSet builds the closed set of named classification strategies.
func NewClassifierSet(cfg config.ClassifiersConfig) *ClassifierSet {
	rf1Bots := make(map[string]bool, len(cfg.RF1Permanent.ModerationBotIDs))
	for _, id := range cfg.RF1Permanent.ModerationBotIDs {
		rf1Bots[id] = true
	}
	rf1Markers := cfg.RF1Permanent.TempBanMarkers

	set := map[string]BanClassifier{
		ClassifierAlways: {ClassifierAlways, func(models.BanEvent) bool { return true }},
		ClassifierNever:  {ClassifierNever, func(models.BanEvent) bool { return false }},
		// Placeholder behaves like "never" but is flagged so that enabling
		// a guild without picking a real strategy is caught at startup.
		ClassifierPlaceholder: {ClassifierPlaceholder, func(models.BanEvent) bool { return false }},
		ClassifierRF1: {ClassifierRF1, func(e models.BanEvent) bool {
			// Bans issued outside the normal moderation system always alert.
			if !rf1Bots[e.ModeratorID] {
				return true
			}
			// Temporary bans from the moderation system are not alerted.
			for _, marker := range rf1Markers {
				if e.Reason != "" && strings.Contains(e.Reason, marker) {
					return false
				}
			}
			return true
		}},
	}

	return &ClassifierSet{byName: set}
}

// Resolve looks up a classifier by strategy name.
func (s *ClassifierSet) Resolve(name string) (BanClassifier, error) {
	if name == "" {
		name = ClassifierPlaceholder
	}
	c, ok := s.byName[name]
	if !ok {
		return BanClassifier{}, fmt.Errorf("unknown ban classifier %q", name)
	}
	return c, nil
}
