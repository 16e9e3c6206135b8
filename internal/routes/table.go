// Package routes maps request paths and methods to the permissions they require.
package routes

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultTable []byte

// DefaultMethod is the method key consulted when a rule has no entry for the request method.
const DefaultMethod = "DEFAULT"

// ErrInvalidTable is returned for route tables that fail validation.
var ErrInvalidTable = errors.New("routes: invalid table")

// RequireMode selects how a rule's permission list is evaluated.
type RequireMode int

const (
	// RequireAny is satisfied by any one listed permission.
	RequireAny RequireMode = iota
	// RequireAll needs every listed permission.
	RequireAll
)

func (m RequireMode) String() string {
	if m == RequireAll {
		return "all"
	}
	return "any"
}

// ResourceRef declares which resource a rule's path addresses for the ownership fallback.
type ResourceRef struct {
	Type    string
	IDGroup string
	// Methods limits the fallback to these methods. Empty means every method.
	Methods []string

	groupIndex int
}

func (r *ResourceRef) appliesTo(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Rule is one compiled entry of the table.
type Rule struct {
	Pattern  *regexp.Regexp
	Methods  map[string][]string
	Require  RequireMode
	Resource *ResourceRef
}

// Resource identifies the resource instance a request addresses.
type Resource struct {
	Type string
	ID   int64
}

// Match is the outcome of a lookup.
type Match struct {
	// Pattern is the matching rule's pattern, empty when no rule matched.
	Pattern     string
	Permissions []string
	Require     RequireMode
	// Resource is nil when the rule declares no ownership fallback for the method.
	Resource *Resource
}

// Table is an ordered, immutable set of rules plus the public route list.
type Table struct {
	rules          []Rule
	publicExact    map[string]struct{}
	publicPrefixes []string
}

type fileFormat struct {
	Public struct {
		Exact    []string `yaml:"exact"`
		Prefixes []string `yaml:"prefixes"`
	} `yaml:"public"`
	Rules []struct {
		Pattern  string              `yaml:"pattern"`
		Methods  map[string][]string `yaml:"methods"`
		Require  string              `yaml:"require"`
		Resource *struct {
			Type    string   `yaml:"type"`
			ID      string   `yaml:"id"`
			Methods []string `yaml:"methods"`
		} `yaml:"resource"`
	} `yaml:"rules"`
}

// Default compiles the built-in table.
func Default() (*Table, error) {
	return Parse(defaultTable)
}

// LoadFile compiles a table from a YAML file, or the built-in table when path is empty.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routes: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse compiles a YAML route table.
func Parse(data []byte) (*Table, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTable, err)
	}

	t := &Table{publicExact: make(map[string]struct{}, len(raw.Public.Exact))}
	for _, p := range raw.Public.Exact {
		t.publicExact[p] = struct{}{}
	}
	for _, p := range raw.Public.Prefixes {
		if p == "" || p == "/" {
			return nil, fmt.Errorf("%w: public prefix %q would expose every route", ErrInvalidTable, p)
		}
		t.publicPrefixes = append(t.publicPrefixes, p)
	}

	for i, r := range raw.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidTable, i, err)
		}
		rule := Rule{Pattern: re, Methods: make(map[string][]string, len(r.Methods))}
		for method, perms := range r.Methods {
			rule.Methods[strings.ToUpper(method)] = perms
		}
		switch strings.ToLower(r.Require) {
		case "", "any":
			rule.Require = RequireAny
		case "all":
			rule.Require = RequireAll
		default:
			return nil, fmt.Errorf("%w: rule %d: require %q", ErrInvalidTable, i, r.Require)
		}
		if r.Resource != nil {
			if r.Resource.Type == "" {
				return nil, fmt.Errorf("%w: rule %d: resource without type", ErrInvalidTable, i)
			}
			idx := re.SubexpIndex(r.Resource.ID)
			if r.Resource.ID == "" || idx < 0 {
				return nil, fmt.Errorf("%w: rule %d: pattern has no group %q", ErrInvalidTable, i, r.Resource.ID)
			}
			ref := &ResourceRef{Type: r.Resource.Type, IDGroup: r.Resource.ID, groupIndex: idx}
			for _, m := range r.Resource.Methods {
				ref.Methods = append(ref.Methods, strings.ToUpper(m))
			}
			rule.Resource = ref
		}
		t.rules = append(t.rules, rule)
	}
	return t, nil
}

// Rules returns the compiled rules in match order.
func (t *Table) Rules() []Rule {
	return t.rules
}

// Lookup returns the permissions required for method on path. The first matching rule wins.
func (t *Table) Lookup(path, method string) Match {
	method = strings.ToUpper(method)
	for _, rule := range t.rules {
		groups := rule.Pattern.FindStringSubmatch(path)
		if groups == nil {
			continue
		}
		perms, ok := rule.Methods[method]
		if !ok {
			perms = rule.Methods[DefaultMethod]
		}
		m := Match{Pattern: rule.Pattern.String(), Permissions: perms, Require: rule.Require}
		if ref := rule.Resource; ref != nil && ref.appliesTo(method) {
			if id, err := strconv.ParseInt(groups[ref.groupIndex], 10, 64); err == nil {
				m.Resource = &Resource{Type: ref.Type, ID: id}
			}
		}
		return m
	}
	return Match{}
}

// IsPublic reports whether path may be served without a token.
func (t *Table) IsPublic(path string) bool {
	if _, ok := t.publicExact[path]; ok {
		return true
	}
	for _, prefix := range t.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
