package ontology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testNamespace = "http://example.org/sec#"

const testTTL = `
@prefix ex: <http://example.org/sec#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

ex:Class a rdfs:Class .
ex:Threat a ex:Class ;
    rdfs:label "Threat" .
ex:Malware a ex:Class ;
    rdfs:subClassOf ex:Threat ;
    rdfs:label "Malware" .
ex:Ransomware a ex:Class ;
    rdfs:subClassOf ex:Malware .
ex:Incident a ex:Class ;
    rdfs:label "Security Incident" .
ex:article1 a ex:Malware .
ex:article2 a ex:Malware .
ex:article3 a ex:Incident .
`

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(testTTL, Config{
		Namespace:      testNamespace,
		ExcludeClasses: []string{"Class"},
	})
	require.NoError(t, err)
	return g
}

func TestBuildHierarchy(t *testing.T) {
	g := buildTestGraph(t)

	require.Equal(t, []string{
		testNamespace + "Incident",
		testNamespace + "Threat",
	}, g.Roots())

	require.Equal(t, []string{testNamespace + "Malware"}, g.Children(testNamespace+"Threat"))
	require.Equal(t, []string{testNamespace + "Ransomware"}, g.Children(testNamespace+"Malware"))
	require.Empty(t, g.Children(testNamespace+"Ransomware"))

	require.True(t, g.IsClass(testNamespace+"Malware"))
	require.False(t, g.IsClass(testNamespace+"Class"))
	require.False(t, g.IsClass(testNamespace+"article1"))

	require.Equal(t, 4, g.NumClasses())
}

func TestBuildLabels(t *testing.T) {
	g := buildTestGraph(t)

	require.Equal(t, "Security Incident", g.Label(testNamespace+"Incident"))
	// No rdfs:label falls back to the local name.
	require.Equal(t, "Ransomware", g.Label(testNamespace+"Ransomware"))
}

func TestBuildWithoutLoggerSetup(t *testing.T) {
	// Build logs its summary; it must still work when the process never
	// configured the global logger.
	require.NotPanics(t, func() {
		g, err := Build(testTTL, Config{
			Namespace:      testNamespace,
			ExcludeClasses: []string{"Class"},
		})
		require.NoError(t, err)
		require.NotNil(t, g)
	})
}

func TestBuildRejectsMalformedTurtle(t *testing.T) {
	_, err := Build("this is not turtle", Config{Namespace: testNamespace})
	require.Error(t, err)
}

func TestBuildRequiresNamespace(t *testing.T) {
	_, err := Build(testTTL, Config{})
	require.Error(t, err)
}

func TestTopClasses(t *testing.T) {
	g := buildTestGraph(t)

	top := g.TopClasses(2)
	require.Len(t, top, 2)
	require.Equal(t, testNamespace+"Malware", top[0].URI)
	require.Equal(t, 2, top[0].Count)
	require.Equal(t, testNamespace+"Incident", top[1].URI)
	require.Equal(t, 1, top[1].Count)
}

func TestLocalName(t *testing.T) {
	require.Equal(t, "Malware", LocalName("http://example.org/sec#Malware"))
	require.Equal(t, "Malware", LocalName("http://example.org/sec/Malware"))
	require.Equal(t, "Malware", LocalName("Malware"))
}

func TestDisplayLabel(t *testing.T) {
	require.Equal(t, "Data Breach", DisplayLabel("DataBreach"))
	require.Equal(t, "Supply Chain Attack", DisplayLabel("SupplyChainAttack"))
	require.Equal(t, "Malware", DisplayLabel("Malware"))
}
