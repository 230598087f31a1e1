package sop

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"golang-zone-analyzer/internal/analyzer/apperror"
	"golang-zone-analyzer/internal/analyzer/dto"

	"github.com/go-playground/validator/v10"
)

// Strategy is one standard operating procedure: how to ask for an analysis,
// how to judge it and how to merge the two timeframes.
type Strategy interface {
	Name() dto.StrategyName
	Settings() Settings
	BuildPrompt(in PromptInput) (string, error)
	Validate(pair string, result, primary *dto.TimeframeResult) dto.ValidationOutcome
	Combine(primary, entry *dto.TimeframeResult, primaryOutcome dto.ValidationOutcome, entryOutcome *dto.ValidationOutcome) dto.CombinedDecision
}

// rules holds what differs between strategies beyond Settings.
type rules struct {
	strictZoneKind     bool
	relaxEntryPips     bool
	warnDirectionWait  bool
	confirmEntrySignal bool
}

type sopStrategy struct {
	name     dto.StrategyName
	settings Settings
	rules    rules
	brief    promptBrief
	schema   *validator.Validate
}

func newStrategy(name dto.StrategyName, settings Settings, r rules, brief promptBrief) *sopStrategy {
	return &sopStrategy{
		name:     name,
		settings: settings,
		rules:    r,
		brief:    brief,
		schema:   newSchemaValidator(),
	}
}

func (s *sopStrategy) Name() dto.StrategyName { return s.name }

func (s *sopStrategy) Settings() Settings { return s.settings }

// New returns the strategy registered under name.
func New(name dto.StrategyName, settings Settings) (Strategy, error) {
	switch name {
	case dto.StrategySwing:
		return NewSwing(settings), nil
	case dto.StrategyScalping:
		return NewScalping(settings), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownStrategy, name)
	}
}

// Registry resolves strategies by name for a single process.
type Registry struct {
	strategies map[dto.StrategyName]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[dto.StrategyName]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Name()] = s
	}
	return r
}

func (r *Registry) Get(name dto.StrategyName) (Strategy, error) {
	s, ok := r.strategies[dto.StrategyName(strings.ToLower(string(name)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownStrategy, name)
	}
	return s, nil
}

func (r *Registry) Names() []dto.StrategyName {
	names := make([]dto.StrategyName, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newSchemaValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
