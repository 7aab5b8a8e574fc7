// Package catalog reads candidates, job postings, personas and watchers from a
// YAML file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spigell/recruit-panel/internal/recruitment"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrJobNotFound       = errors.New("job not found")
	ErrPersonaNotFound   = errors.New("persona not found")
)

// Watch subscribes a user to a job or a candidate.
type Watch struct {
	User        string `mapstructure:"user"`
	JobID       string `mapstructure:"job_id"`
	CandidateID string `mapstructure:"candidate_id"`
}

type Catalog struct {
	candidates map[string]*recruitment.Candidate
	jobs       map[string]*recruitment.Job
	personas   []recruitment.Persona
	watches    []Watch
}

// Load reads the catalog file. Lists are used instead of maps for keyed data
// because viper lowercases map keys.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Decode(map[string]any{
		"candidates": v.Get("candidates"),
		"jobs":       v.Get("jobs"),
		"personas":   v.Get("personas"),
		"watchers":   v.Get("watchers"),
	})
}

type document struct {
	Candidates []*recruitment.Candidate `mapstructure:"candidates"`
	Jobs       []*recruitment.Job       `mapstructure:"jobs"`
	Personas   []recruitment.Persona    `mapstructure:"personas"`
	Watchers   []Watch                  `mapstructure:"watchers"`
}

// Decode builds a catalog from already parsed data.
func Decode(raw map[string]any) (*Catalog, error) {
	defaultActive(raw["personas"])

	var doc document
	cfg := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			categoryHook,
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &doc,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		candidates: make(map[string]*recruitment.Candidate, len(doc.Candidates)),
		jobs:       make(map[string]*recruitment.Job, len(doc.Jobs)),
		watches:    doc.Watchers,
	}
	for _, cand := range doc.Candidates {
		if cand == nil || cand.ID == "" {
			return nil, fmt.Errorf("candidate without id")
		}
		c.candidates[cand.ID] = cand
	}
	for _, job := range doc.Jobs {
		if job == nil || job.ID == "" {
			return nil, fmt.Errorf("job without id")
		}
		c.jobs[job.ID] = job
	}

	seen := make(map[string]struct{}, len(doc.Personas))
	for _, p := range doc.Personas {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("persona without name")
		}
		scoped := p.TenantID + "/" + p.Name
		if _, dup := seen[scoped]; dup {
			return nil, fmt.Errorf("persona %q defined twice", p.Name)
		}
		seen[scoped] = struct{}{}
		if p.Category == "" {
			p.Category = recruitment.InferCategory(p.Name)
		}
		c.personas = append(c.personas, p)
	}

	return c, nil
}

// defaultActive marks personas without an explicit active flag as active.
func defaultActive(personas any) {
	list, ok := personas.([]any)
	if !ok {
		return
	}
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if _, set := m["active"]; !set {
				m["active"] = true
			}
		}
	}
}

var categoryType = reflect.TypeOf(recruitment.Category(""))

func categoryHook(from, to reflect.Type, data any) (any, error) {
	if to != categoryType || from.Kind() != reflect.String {
		return data, nil
	}
	return recruitment.ParseCategory(reflect.ValueOf(data).String())
}

func (c *Catalog) Candidate(_ context.Context, id string) (*recruitment.Candidate, error) {
	cand, ok := c.candidates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
	}
	copied := *cand
	return &copied, nil
}

func (c *Catalog) Job(_ context.Context, id string) (*recruitment.Job, error) {
	job, ok := c.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	copied := *job
	return &copied, nil
}

// Personas lists the active personas visible to tenant: global ones plus the
// tenant's own, where a tenant persona shadows a global one of the same name.
func (c *Catalog) Personas(tenant string) []recruitment.Persona {
	var out []recruitment.Persona
	index := make(map[string]int)
	for _, p := range c.personas {
		if !p.Active || (p.TenantID != "" && p.TenantID != tenant) {
			continue
		}
		if i, ok := index[p.Name]; ok {
			if p.TenantID != "" {
				out[i] = p
			}
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}

// Resolve returns the named personas in the given order.
func (c *Catalog) Resolve(tenant string, names []string) ([]recruitment.Persona, error) {
	visible := make(map[string]recruitment.Persona)
	for _, p := range c.Personas(tenant) {
		visible[p.Name] = p
	}
	out := make([]recruitment.Persona, 0, len(names))
	for _, n := range names {
		p, ok := visible[strings.TrimSpace(n)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, n)
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Catalog) JobWatchers(_ context.Context, jobID string) ([]string, error) {
	var out []string
	for _, w := range c.watches {
		if w.JobID != "" && w.JobID == jobID {
			out = append(out, w.User)
		}
	}
	return out, nil
}

func (c *Catalog) CandidateWatchers(_ context.Context, candidateID string) ([]string, error) {
	var out []string
	for _, w := range c.watches {
		if w.CandidateID != "" && w.CandidateID == candidateID {
			out = append(out, w.User)
		}
	}
	return out, nil
}
