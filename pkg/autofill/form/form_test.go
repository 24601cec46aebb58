package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrigin(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "default https port", url: "https://Example.com/path?q=1", want: "https://example.com"},
		{name: "explicit default port", url: "https://example.com:443/", want: "https://example.com"},
		{name: "custom port", url: "http://localhost:8080/x", want: "http://localhost:8080"},
		{name: "no scheme", url: "example.com", wantErr: true},
		{name: "bad port", url: "http://a.com:port/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := ParseOrigin(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, o.String())
		})
	}
}

func TestOriginEquality(t *testing.T) {
	assert.Equal(t, MustParseOrigin("https://a.com"), MustParseOrigin("https://A.com:443/x"))
	assert.NotEqual(t, MustParseOrigin("https://a.com"), MustParseOrigin("http://a.com"))
	assert.True(t, Origin{}.IsZero())
	assert.Equal(t, "null", Origin{}.String())
}

func TestFrameToken(t *testing.T) {
	local := NewLocalFrameToken()
	remote := NewRemoteFrameToken()

	lt := LocalToken(local)
	got, ok := lt.Local()
	assert.True(t, ok)
	assert.Equal(t, local, got)
	_, ok = lt.Remote()
	assert.False(t, ok)
	assert.False(t, lt.IsRemote())

	rt := RemoteToken(remote)
	gotRemote, ok := rt.Remote()
	assert.True(t, ok)
	assert.Equal(t, remote, gotRemote)
	assert.True(t, rt.IsRemote())

	assert.False(t, local.IsZero())
	assert.True(t, LocalFrameToken{}.IsZero())
	assert.Len(t, local.Short(), 8)
}

func TestFormDataClone(t *testing.T) {
	f := FormData{
		HostFrame:   NewLocalFrameToken(),
		RendererID:  3,
		Fields:      []FormFieldData{{RendererID: 1, Value: "a"}},
		ChildFrames: []FrameTokenWithPredecessor{{Token: LocalToken(NewLocalFrameToken()), Predecessor: 0}},
	}
	c := f.Clone()
	c.Fields[0].Value = "changed"
	c.ChildFrames[0].Predecessor = 5

	assert.Equal(t, "a", f.Fields[0].Value)
	assert.Equal(t, 0, f.ChildFrames[0].Predecessor)
	assert.Equal(t, f.GlobalID(), c.GlobalID())
}

func TestFieldIdentity(t *testing.T) {
	frame := NewLocalFrameToken()
	field := FormFieldData{HostFrame: frame, HostForm: 7, RendererID: 9}

	assert.Equal(t, FieldGlobalID{Frame: frame, Renderer: 9}, field.GlobalID())
	assert.Equal(t, FormGlobalID{Frame: frame, Renderer: 7}, field.HostFormID())

	form := FormData{HostFrame: frame, RendererID: 7, Fields: []FormFieldData{field}}
	got, ok := form.FieldByID(field.GlobalID())
	assert.True(t, ok)
	assert.Equal(t, field, got)
}

func TestFieldTypeSensitivity(t *testing.T) {
	assert.True(t, FieldTypeCreditCardNumber.IsSensitive())
	assert.True(t, FieldTypeCreditCardCVC.IsSensitive())
	assert.False(t, FieldTypeCreditCardName.IsSensitive())
	assert.False(t, FieldTypeEmail.IsSensitive())
	assert.True(t, FieldTypeEmail.IsKnown())
	assert.False(t, FieldType("bogus").IsKnown())

	m := FieldTypeMap{}
	id := FieldGlobalID{Renderer: 1}
	assert.Equal(t, FieldTypeUnknown, m.Lookup(id))
	m[id] = FieldTypeEmail
	assert.Equal(t, FieldTypeEmail, m.Lookup(id))
}
