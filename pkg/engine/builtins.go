package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/joinery/pkg/geom"
	"github.com/chazu/joinery/pkg/model"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms model source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: l-miter -> l_miter
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geometric vector.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpBeamRef wraps a beam key so it can be passed between builtins.
type sexpBeamRef struct {
	key  int
	name string // human-readable name for error messages
}

func (r *sexpBeamRef) SexpString(ps *zygo.PrintState) string {
	if r.name != "" {
		return fmt.Sprintf("(beamref %q)", r.name)
	}
	return fmt.Sprintf("(beamref %d)", r.key)
}
func (r *sexpBeamRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toBeamRef extracts a beam key from a sexpBeamRef.
func toBeamRef(s zygo.Sexp) (int, error) {
	if ref, ok := s.(*sexpBeamRef); ok {
		return ref.key, nil
	}
	return 0, fmt.Errorf("expected beam reference, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the model DSL builtins into a zygomys
// environment. The builtins populate the provided Design during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, d *Design) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: geom.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (beam "rafter" :start (vec3 0 0 0) :end (vec3 0 0 2000)
	//        :width 120 :height 120 :z (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("beam", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		beamName := ""
		if len(pa.positional) > 0 {
			n, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("beam: name: %w", err)
			}
			beamName = n
		}

		var start, end, zHint geom.Vec
		var width, height float64
		var err error
		if v, ok := pa.kw["start"]; ok {
			if start, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("beam: start: %w", err)
			}
		}
		if v, ok := pa.kw["end"]; ok {
			if end, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("beam: end: %w", err)
			}
		}
		if v, ok := pa.kw["width"]; ok {
			if width, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("beam: width: %w", err)
			}
		}
		if v, ok := pa.kw["height"]; ok {
			if height, err = toFloat64(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("beam: height: %w", err)
			}
		}
		if v, ok := pa.kw["z"]; ok {
			if zHint, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("beam: z: %w", err)
			}
		}

		b, err := model.BeamFromEndpoints(start, end, zHint, width, height)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("beam: %w", err)
		}
		key := d.Assembly.AddBeam(b)
		if beamName != "" {
			if _, dup := d.names[beamName]; dup {
				return zygo.SexpNull, fmt.Errorf("beam: duplicate beam name %q", beamName)
			}
			d.names[beamName] = key
		}
		return &sexpBeamRef{key: key, name: beamName}, nil
	})

	// -----------------------------------------------------------------------
	// (named-beam "rafter")
	// -----------------------------------------------------------------------
	env.AddFunction("named_beam", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("named-beam requires a name argument")
		}
		beamName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("named-beam: %w", err)
		}
		key, ok := d.BeamByName(beamName)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("named-beam: no beam named %q", beamName)
		}
		return &sexpBeamRef{key: key, name: beamName}, nil
	})

	// ruleBuiltin registers one joint-rule builtin with the given kind
	// and beam keyword names, since the rules share their option set.
	ruleBuiltin := func(fname, kind, kwA, kwB string) {
		env.AddFunction(fname, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			rule := JointRule{Kind: kind, ExtendCross: true}

			v, ok := pa.kw[kwA]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: missing :%s", fname, kwA)
			}
			keyA, err := toBeamRef(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fname, kwA, err)
			}
			v, ok = pa.kw[kwB]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: missing :%s", fname, kwB)
			}
			keyB, err := toBeamRef(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fname, kwB, err)
			}
			rule.BeamA, rule.BeamB = keyA, keyB

			floatOpts := map[string]*float64{
				"mill-depth":     &rule.MillDepth,
				"drill-diameter": &rule.DrillDiameter,
				"cutoff":         &rule.Cutoff,
			}
			for kw, dst := range floatOpts {
				if v, ok := pa.kw[kw]; ok {
					f, err := toFloat64(v)
					if err != nil {
						return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fname, kw, err)
					}
					*dst = f
				}
			}
			boolOpts := map[string]*bool{
				"birdsmouth":       &rule.Birdsmouth,
				"stepjoint":        &rule.StepJoint,
				"small-beam-butts": &rule.SmallBeamButts,
				"extend-cross":     &rule.ExtendCross,
			}
			for kw, dst := range boolOpts {
				if v, ok := pa.kw[kw]; ok {
					b, err := toBool(v)
					if err != nil {
						return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fname, kw, err)
					}
					*dst = b
				}
			}

			d.Rules = append(d.Rules, rule)
			return zygo.SexpNull, nil
		})
	}

	// (t-butt :main m :cross c :mill-depth 10 :birdsmouth true ...)
	ruleBuiltin("t_butt", "t_butt", "main", "cross")
	// (l-butt :main m :cross c :small-beam-butts true :extend-cross true)
	ruleBuiltin("l_butt", "l_butt", "main", "cross")
	// (l-miter :beam-a a :beam-b b :cutoff 100)
	ruleBuiltin("l_miter", "l_miter", "beam-a", "beam-b")
	// (french-ridge-lap :top a :bottom b :drill-diameter 12)
	ruleBuiltin("french_ridge_lap", "french_ridge_lap", "top", "bottom")
}
