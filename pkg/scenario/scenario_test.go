package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formforest/pkg/autofill/form"
	"github.com/entrhq/formforest/pkg/autofill/formforest"
)

const nestedYAML = `
frames:
  - name: F1
    url: https://a.example/
    html: <form><input name="f1"><iframe></iframe><input name="f4"></form>
  - name: F2
    parent: F1
    url: https://a.example/b
    html: <form><input name="f2"><input name="f3"></form>
steps:
  - update: F2
  - update: F1
  - expect: {frame: F2, fields: [f1, f2, f3, f4]}
`

func run(t *testing.T, s *Scenario, opts RunOptions) ([]StepResult, error) {
	t.Helper()
	r, err := NewRunner(s, formforest.New(), opts)
	require.NoError(t, err)
	return r.Run(context.Background())
}

func TestTestdata(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := Load(path)
			require.NoError(t, err)

			results, err := run(t, s, RunOptions{})
			require.NoError(t, err)
			assert.Len(t, results, len(s.Steps))
		})
	}
}

func TestRun_ChildBeforeParent(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)

	results, err := run(t, s, RunOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "[f1 f2 f3 f4]", results[2].Detail)
}

func TestRun_CheckoutFill(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "checkout.yaml"))
	require.NoError(t, err)

	results, err := run(t, s, RunOptions{})
	require.NoError(t, err)

	fill := results[4]
	require.Equal(t, "fill", fill.Kind)
	require.Len(t, fill.RendererForms, 3)

	card := fill.RendererForms[1]
	require.Len(t, card.Fields, 3)
	assert.Equal(t, "4111111111111111", card.Fields[0].Value)
	assert.True(t, card.Fields[0].IsAutofilled)
	assert.Equal(t, "123", card.Fields[1].Value)

	rewards := fill.RendererForms[2]
	require.Len(t, rewards.Fields, 1)
	assert.Empty(t, rewards.Fields[0].Value, "no permission for the rewards frame")
}

func TestRun_TrustAllOrigins(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "checkout.yaml"))
	require.NoError(t, err)
	s.Steps = []Step{
		{Update: "main"},
		{Update: "card"},
		{Update: "rewards"},
		{Fill: &FillStep{
			FormRef: FormRef{Frame: "main"},
			Trigger: "name",
			Filled:  []string{"name", "email", "zip", "cardnumber", "cvc", "exp", "rewards_email"},
		}},
	}

	_, err = run(t, s, RunOptions{TrustAllOrigins: true})
	assert.NoError(t, err)
}

func TestRun_ExpectMismatch(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)
	s.Steps[2].Expect.Fields = []string{"f1", "f4"}

	results, err := run(t, s, RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 3 (expect)")
	assert.Contains(t, err.Error(), "expected [f1 f4]")
	assert.Len(t, results, 3)
}

func TestRun_ErasedFrame(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)
	s.Steps = []Step{
		{Update: "F1"},
		{Update: "F2"},
		{Erase: "F1"},
		{Expect: &ExpectStep{FormRef: FormRef{Frame: "F2"}, Missing: true}},
		{Update: "F2"},
	}

	results, err := run(t, s, RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `frame "F2" was erased`)
	require.Len(t, results, 5)
	assert.Equal(t, "erased 2 frame(s)", results[2].Detail)
}

func TestRun_ExpectExplicitForm(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)
	one, seven := 1, 7
	s.Steps = []Step{
		{Update: "F1"},
		{Expect: &ExpectStep{FormRef: FormRef{Frame: "F1", Form: &one}, Fields: []string{"f1", "f4"}}},
		{Expect: &ExpectStep{FormRef: FormRef{Frame: "F1", Form: &seven}, Missing: true}},
		{Expect: &ExpectStep{FormRef: FormRef{Frame: "F2"}, Missing: true}},
	}

	_, err = run(t, s, RunOptions{})
	assert.NoError(t, err)
}

func TestRun_Canceled(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)
	r, err := NewRunner(s, formforest.New(), RunOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunner_Swap(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)
	r, err := NewRunner(s, formforest.New(), RunOptions{})
	require.NoError(t, err)

	before, ok := r.Token("F2")
	require.True(t, ok)

	res, err := r.Step(Step{Swap: &SwapStep{Frame: "F2", CrossProcess: true}})
	require.NoError(t, err)
	after, _ := r.Token("F2")
	assert.NotEqual(t, before, after)
	assert.Equal(t, before.Short()+" -> "+after.Short(), res.Detail)

	_, ok = r.Tree().Driver(before)
	assert.False(t, ok)
	tok, err := r.Tree().ChildToken(after)
	require.NoError(t, err)
	assert.True(t, tok.IsRemote())
}

func TestRunner_NavigateAcrossOrigins(t *testing.T) {
	s, err := Parse([]byte(nestedYAML))
	require.NoError(t, err)
	r, err := NewRunner(s, formforest.New(), RunOptions{})
	require.NoError(t, err)

	_, err = r.Step(Step{Navigate: &NavigateStep{Frame: "F2", URL: "https://b.example/", HTML: "<form></form>"}})
	assert.Error(t, err)

	_, err = r.Step(Step{Navigate: &NavigateStep{Frame: "F2", URL: "https://a.example/c", HTML: "<form></form>"}})
	assert.NoError(t, err)
}

func TestNewRunner_IFrameIndexTaken(t *testing.T) {
	zero := 0
	s := &Scenario{Frames: []Frame{
		{Name: "main", URL: "https://a.example/"},
		{Name: "x", Parent: "main", URL: "https://a.example/x"},
		{Name: "y", Parent: "main", URL: "https://a.example/y", IFrame: &zero},
	}}
	_, err := NewRunner(s, formforest.New(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `iframe 0 of "main" already holds "x"`)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no frames",
			yaml: `name: empty`,
			want: "no frames",
		},
		{
			name: "malformed",
			yaml: `frames: [`,
			want: "failed to parse scenario",
		},
		{
			name: "main frame with parent",
			yaml: `frames: [{name: a, parent: b, url: "https://a.example"}]`,
			want: "has no parent",
		},
		{
			name: "duplicate frame",
			yaml: `frames: [{name: a, url: "https://a.example"}, {name: a, parent: a, url: "https://a.example"}]`,
			want: "declared twice",
		},
		{
			name: "parent declared later",
			yaml: `frames: [{name: a, url: "https://a.example"}, {name: b, parent: c, url: "https://a.example"}, {name: c, parent: a, url: "https://a.example"}]`,
			want: `parent "c" must be declared before it`,
		},
		{
			name: "url without origin",
			yaml: `frames: [{name: a, url: "about:blank"}]`,
			want: `frame "a"`,
		},
		{
			name: "unknown profile type",
			yaml: `
frames: [{name: a, url: "https://a.example"}]
profile: {shoe_size: "42"}`,
			want: `unknown field type "shoe_size"`,
		},
		{
			name: "two actions",
			yaml: `
frames: [{name: a, url: "https://a.example"}]
steps: [{update: a, erase: a}]`,
			want: "exactly one action, got 2",
		},
		{
			name: "no action",
			yaml: `
frames: [{name: a, url: "https://a.example"}]
steps: [{}]`,
			want: "exactly one action, got 0",
		},
		{
			name: "unknown step frame",
			yaml: `
frames: [{name: a, url: "https://a.example"}]
steps: [{fill: {frame: a, trigger_frame: b}}]`,
			want: `step 1 (fill): unknown frame "b"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Profile(t *testing.T) {
	s, err := Parse([]byte(`
frames: [{name: a, url: "https://a.example"}]
profile:
  email: ada@example.com
  cc_number: "4111"
`))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.Profile[form.FieldTypeEmail])
	assert.Equal(t, "4111", s.Profile[form.FieldTypeCreditCardNumber])
}

func TestStep_Kind(t *testing.T) {
	assert.Equal(t, "update", Step{Update: "a"}.Kind())
	assert.Equal(t, "erase", Step{Erase: "a"}.Kind())
	assert.Equal(t, "swap", Step{Swap: &SwapStep{}}.Kind())
	assert.Equal(t, "navigate", Step{Navigate: &NavigateStep{}}.Kind())
	assert.Equal(t, "expect", Step{Expect: &ExpectStep{}}.Kind())
	assert.Equal(t, "fill", Step{Fill: &FillStep{}}.Kind())
	assert.Equal(t, "", Step{}.Kind())
}
