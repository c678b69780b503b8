package localization

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedResourcesAreComplete(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)
	require.Equal(t, "en", b.Languages()[0])
	require.Contains(t, b.Languages(), "de")

	keys := func(lang string) map[string]string {
		data, err := embedded.ReadFile("resources/" + ScopePages + "." + lang + ".json")
		require.NoError(t, err)
		var m map[string]string
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}
	en, de := keys("en"), keys("de")
	for k := range en {
		require.Contains(t, de, k, "missing german resource")
	}
	for k := range de {
		require.Contains(t, en, k, "missing english resource")
	}
}

func TestLocalizerFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"res/pages.en.json": {Data: []byte(`{"Save":"Save","Only":"english only"}`)},
		"res/pages.de.json": {Data: []byte(`{"Save":"Speichern"}`)},
	}
	b, err := LoadFS(fsys, "res")
	require.NoError(t, err)

	de := b.Localizer(ScopePages, "de-AT")
	require.Equal(t, "Speichern", de.Get("Save").Value)
	require.Equal(t, "english only", de.Get("Only").Value)

	missing := de.Get("Nope")
	require.True(t, missing.ResourceNotFound)
	require.Equal(t, "Nope", missing.Value)

	require.Equal(t, "Save", b.Localizer(ScopePages, "fr").Get("Save").Value)
	require.Equal(t, "Save", b.Localizer(ScopePages, "").Get("Save").Value)
}

func TestLoadFSRejectsBadResources(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"res/pages.en.json": {Data: []byte(`{`)}}, "res")
	require.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"res/readme.txt": {Data: []byte("x")}}, "res")
	require.Error(t, err)
}

func TestText(t *testing.T) {
	require.Equal(t, "fb", Text(nil, "k", "fb"))
	m := Map{"k": "v"}
	require.Equal(t, "v", Text(m, "k", "fb"))
	require.Equal(t, "fb", Text(m, "x", "fb"))
}
