package bmg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXMLToMapStripsNamespacePrefixes(t *testing.T) {
	doc := []byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
		<soapenv:Body>
			<ns1:pesquisarResponse xmlns:ns1="urn:bmg">
				<pesquisarReturn>ok</pesquisarReturn>
			</ns1:pesquisarResponse>
		</soapenv:Body>
	</soapenv:Envelope>`)

	result, err := XMLToMap(doc)
	require.NoError(t, err)

	root, ok := result.(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "ok", dig(root, "Body", "pesquisarResponse", "pesquisarReturn"))
}

func TestXMLToMapNilElements(t *testing.T) {
	doc := []byte(`<root xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
		<valor xsi:nil="true"/>
		<nome>Maria</nome>
	</root>`)

	result, err := XMLToMap(doc)
	require.NoError(t, err)

	root := result.(map[string]interface{})
	value, present := root["valor"]
	assert.True(t, present)
	assert.Nil(t, value)
	assert.Equal(t, "Maria", root["nome"])
}

func TestXMLToMapRepeatedSiblings(t *testing.T) {
	doc := []byte(`<root>
		<item>a</item>
		<item>b</item>
		<item>c</item>
	</root>`)

	result, err := XMLToMap(doc)
	require.NoError(t, err)

	root := result.(map[string]interface{})
	items, ok := root["item"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b", "c"}, items)
}

func TestXMLToMapTextWithChildren(t *testing.T) {
	doc := []byte(`<root>prefixo<filho>x</filho></root>`)

	result, err := XMLToMap(doc)
	require.NoError(t, err)

	root := result.(map[string]interface{})
	assert.Equal(t, "prefixo", root["_text"])
	assert.Equal(t, "x", root["filho"])
}

func TestXMLToMapAttributes(t *testing.T) {
	doc := []byte(`<root tipo="consulta">valor</root>`)

	result, err := XMLToMap(doc)
	require.NoError(t, err)

	root := result.(map[string]interface{})
	assert.Equal(t, "consulta", root["tipo"])
	assert.Equal(t, "valor", root["_text"])
}

func TestXMLToMapLatin1Charset(t *testing.T) {
	doc := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><root><nome>Jo`),
		append([]byte{0xE3}, []byte(`o</nome></root>`)...)...)

	result, err := XMLToMap(doc)
	require.NoError(t, err)

	root := result.(map[string]interface{})
	assert.Equal(t, "João", root["nome"])
}

func TestXMLToMapEmptyDocument(t *testing.T) {
	_, err := XMLToMap([]byte(""))
	assert.Error(t, err)
}

func TestDig(t *testing.T) {
	doc := map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{"c": "fundo"},
		},
	}

	assert.Equal(t, "fundo", dig(doc, "a", "b", "c"))
	assert.Nil(t, dig(doc, "a", "x", "c"))
	assert.Nil(t, dig("not-a-map", "a"))
}
