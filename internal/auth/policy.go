package auth

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/civicpulse/grievance-server/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Access names who a rule admits
type Access string

const (
	AccessPublic        Access = "public"
	AccessAuthenticated Access = "authenticated"
	AccessRoles         Access = "roles"
)

// Decision is the outcome of evaluating a request against the policy
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Rule maps a method and path glob to the access it requires.
// Method "*" matches every method.
type Rule struct {
	Method string        `yaml:"method"`
	Path   string        `yaml:"path"`
	Access Access        `yaml:"access"`
	Roles  []models.Role `yaml:"roles"`
}

func (r Rule) matches(method, p string) bool {
	if r.Method != "*" && !strings.EqualFold(r.Method, method) {
		return false
	}
	return MatchPath(r.Path, p)
}

func (r Rule) admits(role models.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Policy is an ordered rule table. The most specific matching rule wins;
// rules of equal specificity keep their declaration order.
type Policy struct {
	rules []Rule
}

type policyFile struct {
	Rules []Rule `yaml:"rules"`
}

// NewPolicy validates and orders rules
func NewPolicy(rules []Rule) (*Policy, error) {
	ordered := make([]Rule, len(rules))
	for i, r := range rules {
		if r.Method == "" {
			r.Method = "*"
		}
		if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("rule %d: path %q must start with /", i, r.Path)
		}
		if r.Access == "" && len(r.Roles) > 0 {
			r.Access = AccessRoles
		}
		switch r.Access {
		case AccessPublic, AccessAuthenticated:
		case AccessRoles:
			if len(r.Roles) == 0 {
				return nil, fmt.Errorf("rule %d (%s %s): no roles listed", i, r.Method, r.Path)
			}
			r.Roles = append([]models.Role(nil), r.Roles...)
			for j, role := range r.Roles {
				parsed, ok := models.ParseRole(string(role))
				if !ok {
					return nil, fmt.Errorf("rule %d (%s %s): unknown role %q", i, r.Method, r.Path, role)
				}
				r.Roles[j] = parsed
			}
		default:
			return nil, fmt.Errorf("rule %d (%s %s): unknown access %q", i, r.Method, r.Path, r.Access)
		}
		ordered[i] = r
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := specificity(ordered[i].Path), specificity(ordered[j].Path)
		if si != sj {
			return si > sj
		}
		// exact method before wildcard
		return ordered[i].Method != "*" && ordered[j].Method == "*"
	})
	return &Policy{rules: ordered}, nil
}

// ParsePolicy reads a YAML rule table
func ParsePolicy(data []byte) (*Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	return NewPolicy(f.Rules)
}

// LoadPolicy reads the rule table from path, or the built-in table when
// path is empty.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return ParsePolicy(defaultPolicy)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return ParsePolicy(data)
}

// DefaultPolicy returns the built-in rule table
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicy)
	if err != nil {
		panic(err)
	}
	return p
}

// Rules returns the evaluation order
func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Evaluate decides a request. A nil principal is an anonymous request.
func (p *Policy) Evaluate(method, path string, principal *models.Principal) Decision {
	for _, r := range p.rules {
		if !r.matches(method, path) {
			continue
		}
		switch r.Access {
		case AccessPublic:
			return Allow
		case AccessAuthenticated:
			if principal == nil {
				return Unauthenticated
			}
			return Allow
		default:
			if principal == nil {
				return Unauthenticated
			}
			if !r.admits(principal.Role) {
				return Forbidden
			}
			return Allow
		}
	}

	// unmatched routes admit any authenticated role
	if principal == nil {
		return Unauthenticated
	}
	return Allow
}
