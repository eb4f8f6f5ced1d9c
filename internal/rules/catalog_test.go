package rules

import (
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/cadence/internal/commitmsg"
	"github.com/bartekus/cadence/internal/cycle"
	"github.com/bartekus/cadence/internal/policy"
	"github.com/bartekus/cadence/internal/secrets"
)

func TestDefault_Table(t *testing.T) {
	c := Default()
	rs := c.Rules()
	require.Len(t, rs, 10)

	seen := map[string]bool{}
	for _, r := range rs {
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.Description)
		assert.NotNil(t, r.Predicate)
		assert.NotNil(t, r.Code.Err(), "rule %s has unknown code", r.ID)
	}

	r, ok := c.Lookup(IDBranchIssue)
	require.True(t, ok)
	assert.Equal(t, policy.SeverityBlocking, r.Severity)

	r, ok = c.Lookup(IDCommitStyle)
	require.True(t, ok)
	assert.Equal(t, policy.SeverityAdvisory, r.Severity)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestNew_Overrides(t *testing.T) {
	c, err := New(map[string]policy.Severity{IDCommitStyle: policy.SeverityBlocking})
	require.NoError(t, err)
	r, _ := c.Lookup(IDCommitStyle)
	assert.Equal(t, policy.SeverityBlocking, r.Severity)

	d, _ := Default().Lookup(IDCommitStyle)
	assert.Equal(t, policy.SeverityAdvisory, d.Severity, "overrides must not leak into other catalogs")

	_, err = New(map[string]policy.Severity{"commit.nope": policy.SeverityBlocking})
	require.Error(t, err)

	_, err = New(map[string]policy.Severity{IDCommitStyle: "loud"})
	require.Error(t, err)
}

func TestRules_ReturnsCopy(t *testing.T) {
	c := Default()
	rs := c.Rules()
	rs[0].Severity = policy.SeverityAdvisory

	r, _ := c.Lookup(IDSecretsDetected)
	assert.Equal(t, policy.SeverityBlocking, r.Severity)
}

func TestEvaluate_Clean(t *testing.T) {
	msg, err := commitmsg.Classify("feat(auth): add JWT refresh before expiry", commitmsg.Options{})
	require.NoError(t, err)
	assert.Empty(t, Default().Evaluate(&Facts{Message: msg}))
}

func TestEvaluate_Facts(t *testing.T) {
	_, msgErr := commitmsg.Classify("fixed bug", commitmsg.Options{})
	require.Error(t, msgErr)

	_, cycErr := cycle.Advance(cycle.Start("u"), cycle.PhaseGreen, nil)
	require.Error(t, cycErr)

	f := &Facts{
		MessageErr: msgErr,
		StyleNotes: []string{"subject should not end with a period"},
		CycleErr:   cycErr,
		Branch: []policy.Violation{
			{RuleID: "branch.issue", Code: policy.CodeMissingIssueLink, Severity: policy.SeverityBlocking, Message: "not linked"},
		},
		Findings: []secrets.Finding{{Pattern: "aws-access-key", Kind: secrets.KindCloudKey, Line: 1, Confidence: secrets.ConfidenceHigh, Match: "AKIA"}},
	}

	vs := Default().Evaluate(f)
	got := make([]string, 0, len(vs))
	for _, v := range vs {
		got = append(got, v.RuleID)
	}
	assert.Equal(t, []string{IDSecretsDetected, IDCommitFormat, IDCommitStyle, IDCycleOrder, IDBranchIssue}, got)

	assert.Equal(t, policy.CodeMalformedMessage, vs[1].Code)
	assert.Contains(t, vs[1].Message, "no colon-delimited type header")
	assert.NotContains(t, vs[1].Message, ": MalformedMessage")
	assert.Contains(t, vs[3].Message, "phase out of order")
	assert.Contains(t, vs[3].Message, "from=NONE")
	assert.NotContains(t, vs[0].Message, "AKIA")
}

func TestEvaluate_CycleCodesRouteToTheirRule(t *testing.T) {
	tests := []struct {
		err  error
		rule string
	}{
		{goerr.Wrap(policy.ErrOutOfOrderPhase, "x"), IDCycleOrder},
		{goerr.Wrap(policy.ErrUnverifiedTransition, "x"), IDCycleVerified},
		{goerr.Wrap(policy.ErrRegressionDuringRefactor, "x"), IDCycleRefactorGreen},
		{goerr.Wrap(policy.ErrIncompleteCycle, "x"), IDCycleComplete},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			vs := Default().Evaluate(&Facts{CycleErr: tt.err})
			require.Len(t, vs, 1)
			assert.Equal(t, tt.rule, vs[0].RuleID)
			assert.Equal(t, "x", vs[0].Message)
		})
	}
}
