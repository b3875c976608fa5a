package auth_test

import (
	"testing"

	"github.com/civicpulse/grievance-server/internal/auth"
	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principalWith(role models.Role) *models.Principal {
	return &models.Principal{Subject: "someone@example.com", UserID: 1, Role: role}
}

func TestDefaultPolicy_Table(t *testing.T) {
	policy := auth.DefaultPolicy()

	citizen := principalWith(models.RoleCitizen)
	admin := principalWith(models.RoleAdmin)
	dept := principalWith(models.RoleDepartment)

	tests := []struct {
		name      string
		method    string
		path      string
		principal *models.Principal
		want      auth.Decision
	}{
		{"login is public", "POST", "/auth/login", nil, auth.Allow},
		{"register is public", "POST", "/auth/register", nil, auth.Allow},
		{"uploads are public", "GET", "/uploads/abc.jpg", nil, auth.Allow},
		{"health is public", "GET", "/health", nil, auth.Allow},
		{"citizen lists own", "GET", "/citizen/complaints/my", citizen, auth.Allow},
		{"citizen submits", "POST", "/citizen/complaints", citizen, auth.Allow},
		{"anonymous citizen route", "GET", "/citizen/complaints/my", nil, auth.Unauthenticated},
		{"admin on citizen prefix", "GET", "/citizen/complaints/my", admin, auth.Forbidden},
		{"all complaints needs admin", "GET", "/citizen/complaints/all", admin, auth.Allow},
		{"all complaints forbids citizen", "GET", "/citizen/complaints/all", citizen, auth.Forbidden},
		{"assign needs admin", "PUT", "/citizen/complaints/42/assign", admin, auth.Allow},
		{"assign forbids citizen", "PUT", "/citizen/complaints/42/assign", citizen, auth.Forbidden},
		{"feedback is citizen", "POST", "/citizen/complaints/42/feedback", citizen, auth.Allow},
		{"admin prefix", "GET", "/admin/departments", admin, auth.Allow},
		{"admin prefix forbids department", "PUT", "/admin/assign", dept, auth.Forbidden},
		{"department prefix", "PUT", "/department/resolve", dept, auth.Allow},
		{"department prefix forbids citizen", "GET", "/department/complaints", citizen, auth.Forbidden},
		{"unmatched anonymous", "POST", "/profile", nil, auth.Unauthenticated},
		{"unmatched authenticated", "DELETE", "/profile", dept, auth.Allow},
		{"login PUT is not public", "PUT", "/auth/login", nil, auth.Unauthenticated},
		{"frontend root", "GET", "/", nil, auth.Allow},
		{"frontend deep link", "GET", "/login", nil, auth.Allow},
		{"favicon", "GET", "/favicon.ico", nil, auth.Allow},
		{"frontend rule never opens the API", "GET", "/admin/complaints", nil, auth.Unauthenticated},
		{"frontend rule never opens department routes", "GET", "/department/complaints", citizen, auth.Forbidden},
		{"options follows the route rule", "OPTIONS", "/citizen/complaints/my", nil, auth.Unauthenticated},
		{"options with a citizen token", "OPTIONS", "/citizen/complaints/my", citizen, auth.Allow},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Evaluate(tc.method, tc.path, tc.principal))
		})
	}
}

func TestNewPolicy_MostSpecificWinsRegardlessOfOrder(t *testing.T) {
	policy, err := auth.NewPolicy([]auth.Rule{
		{Method: "*", Path: "/citizen/**", Roles: []models.Role{models.RoleCitizen}},
		{Method: "GET", Path: "/citizen/complaints/all", Roles: []models.Role{models.RoleAdmin}},
	})
	require.NoError(t, err)

	assert.Equal(t, auth.Allow, policy.Evaluate("GET", "/citizen/complaints/all", principalWith(models.RoleAdmin)))
	assert.Equal(t, auth.Forbidden, policy.Evaluate("GET", "/citizen/complaints/all", principalWith(models.RoleCitizen)))
	assert.Equal(t, "/citizen/complaints/all", policy.Rules()[0].Path)
}

func TestNewPolicy_EqualSpecificityKeepsOrder(t *testing.T) {
	policy, err := auth.NewPolicy([]auth.Rule{
		{Method: "*", Path: "/reports/*", Access: auth.AccessPublic},
		{Method: "*", Path: "/reports/*", Roles: []models.Role{models.RoleAdmin}},
	})
	require.NoError(t, err)

	assert.Equal(t, auth.Allow, policy.Evaluate("GET", "/reports/x", nil))
}

func TestNewPolicy_Validation(t *testing.T) {
	_, err := auth.NewPolicy([]auth.Rule{{Method: "GET", Path: "no-slash", Access: auth.AccessPublic}})
	assert.Error(t, err)

	_, err = auth.NewPolicy([]auth.Rule{{Method: "GET", Path: "/x", Access: auth.AccessRoles}})
	assert.Error(t, err)

	_, err = auth.NewPolicy([]auth.Rule{{Method: "GET", Path: "/x", Roles: []models.Role{"ROOT"}}})
	assert.Error(t, err)

	_, err = auth.NewPolicy([]auth.Rule{{Method: "GET", Path: "/x", Access: "sometimes"}})
	assert.Error(t, err)
}

func TestParsePolicy_YAML(t *testing.T) {
	policy, err := auth.ParsePolicy([]byte(`
rules:
  - method: GET
    path: /reports/**
    roles: [admin, department]
  - path: /open
    access: public
`))
	require.NoError(t, err)

	assert.Equal(t, auth.Allow, policy.Evaluate("GET", "/reports/2026/march", principalWith(models.RoleDepartment)))
	assert.Equal(t, auth.Forbidden, policy.Evaluate("GET", "/reports", principalWith(models.RoleCitizen)))
	assert.Equal(t, auth.Allow, policy.Evaluate("DELETE", "/open", nil))
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/auth/*", "/auth/login", true},
		{"/auth/*", "/auth/a/b", false},
		{"/auth/*", "/auth", false},
		{"/citizen/**", "/citizen", true},
		{"/citizen/**", "/citizen/complaints/9/feedback", true},
		{"/citizen/**", "/citizens", false},
		{"/citizen/complaints/*/assign", "/citizen/complaints/42/assign", true},
		{"/citizen/complaints/*/assign", "/citizen/complaints/42/feedback", false},
		{"/**", "/anything/at/all", true},
		{"/**", "/", true},
		{"/", "/", true},
		{"/", "/x", false},
		{"/a/**/z", "/a/b/c/z", true},
		{"/a/**/z", "/a/z", true},
		{"/a/[", "/a/[", false},
		{"/health", "/health/", true},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, auth.MatchPath(tc.pattern, tc.path), "%s vs %s", tc.pattern, tc.path)
	}
}
