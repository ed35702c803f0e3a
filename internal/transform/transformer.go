// Package transform expands JSON artifacts in a file set into content files.
//
// Every file present when Transform starts is tested against each registered
// glob pattern in registration order. A match parses the file as JSON and
// hands it to the pattern's rule, whose records become new files. Matched
// files are removed afterwards. Files created during the pass are never
// matched themselves.
package transform

import (
	"fmt"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/hooks"
	"git.home.luguber.info/inful/kapi/internal/jsonx"
	"git.home.luguber.info/inful/kapi/internal/logfields"
	"git.home.luguber.info/inful/kapi/internal/metrics"
	"git.home.luguber.info/inful/kapi/internal/site"
)

// CollisionPolicy decides what happens when two records of one pass are
// written to the same path.
type CollisionPolicy int

const (
	// CollisionOverwrite keeps the last record written and logs a warning.
	CollisionOverwrite CollisionPolicy = iota
	// CollisionError fails the pass.
	CollisionError
)

func (p CollisionPolicy) String() string {
	if p == CollisionError {
		return "error"
	}
	return "overwrite"
}

// ParseCollisionPolicy maps "overwrite" (or "") and "error" to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch s {
	case "", "overwrite":
		return CollisionOverwrite, nil
	case "error":
		return CollisionError, nil
	default:
		return CollisionOverwrite, fmt.Errorf("unknown collision policy %q", s)
	}
}

// Result summarises one pass.
type Result struct {
	Collections *site.Collections
	// Expanded counts matched source files.
	Expanded int
	// Produced counts records written.
	Produced int
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithCollisionPolicy sets the collision policy. Defaults to CollisionOverwrite.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(t *Transformer) { t.policy = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(t *Transformer) {
		if rec != nil {
			t.recorder = rec
		}
	}
}

// Transformer applies file rules to a file set.
type Transformer struct {
	rules    []hooks.PatternRule
	policy   CollisionPolicy
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New creates a Transformer over rules, which are applied in the given order.
func New(rules []hooks.PatternRule, opts ...Option) *Transformer {
	t := &Transformer{
		rules:    rules,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform runs one pass over set, mutating it in place. On error the set
// may be partially transformed and should be discarded.
func (t *Transformer) Transform(set *site.FileSet) (*Result, error) {
	p := &pass{
		Transformer: t,
		set:         set,
		produced:    make(map[string]string),
		result:      &Result{Collections: site.NewCollections()},
	}
	for _, path := range set.Paths() {
		if err := p.process(path); err != nil {
			return nil, err
		}
	}
	t.recorder.AddTransformFiles(p.result.Expanded, p.result.Produced)
	return p.result, nil
}

type pass struct {
	*Transformer
	set *site.FileSet
	// produced maps every path written in this pass to the file it came from.
	produced map[string]string
	result   *Result
}

func (p *pass) process(path string) error {
	if _, derived := p.produced[path]; derived {
		return nil
	}
	src, ok := p.set.Get(path)
	if !ok {
		return nil
	}

	var (
		doc     any
		parsed  bool
		matched bool
		keep    bool
	)
	for _, pr := range p.rules {
		ok, err := doublestar.Match(pr.Pattern, path)
		if err != nil {
			return errors.WrapError(err, errors.CategoryTransform, "invalid file rule pattern").
				WithContext("pattern", pr.Pattern).
				Build()
		}
		if !ok {
			continue
		}
		matched = true

		if !parsed {
			doc, err = jsonx.Decode(src.Contents)
			if err != nil {
				return errors.WrapError(err, errors.CategoryTransform, "parse JSON artifact").
					WithContext("path", path).
					WithContext("pattern", pr.Pattern).
					Build()
			}
			parsed = true
		}

		wroteSelf, err := p.expand(path, pr, doc)
		if err != nil {
			return err
		}
		keep = keep || wroteSelf
	}

	if !matched {
		return nil
	}
	p.result.Expanded++
	if !keep {
		p.set.Delete(path)
	}
	return nil
}

// expand applies one rule to a parsed document and reports whether a record
// was written at the source's own path.
func (p *pass) expand(source string, pr hooks.PatternRule, doc any) (bool, error) {
	fail := func(err error, msg string) error {
		return errors.WrapError(err, errors.CategoryTransform, msg).
			WithContext("path", source).
			WithContext("pattern", pr.Pattern).
			Build()
	}

	records, err := pr.Rule.Select(doc)
	if err != nil {
		return false, fail(err, "select records")
	}

	wroteSelf := false
	for _, record := range records {
		name, err := pr.Rule.NameOf(record)
		if err != nil {
			return false, fail(err, "name record")
		}
		out := site.CleanPath(name)
		if out == "" {
			return false, fail(fmt.Errorf("record name %q is empty", name), "name record")
		}

		overrides, err := pr.Rule.MetaOf(record)
		if err != nil {
			return false, fail(err, "build record metadata")
		}
		meta := site.WithDefaults(overrides)

		if prev, dup := p.produced[out]; dup {
			if p.policy == CollisionError {
				return false, errors.TransformError("derived file written twice").
					WithContext("path", out).
					WithContext("source", source).
					WithContext("previous_source", prev).
					Build()
			}
			p.logger.Warn("Derived file overwritten",
				logfields.Path(out),
				slog.String("source", source),
				slog.String("previous_source", prev))
		}

		p.set.Set(out, &site.File{Contents: meta.Contents(), Metadata: meta})
		p.produced[out] = source
		p.result.Produced++
		if out == source {
			wroteSelf = true
		}

		if name := meta.Collection(); name != "" {
			p.result.Collections.Append(name, meta)
		}
		p.logger.Debug("Derived file written",
			logfields.Path(out),
			logfields.Pattern(pr.Pattern),
			logfields.Collection(meta.Collection()))
	}
	return wroteSelf, nil
}
