package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/graph"
	"github.com/specialistvlad/blueprintgo/internal/pintype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const nodesJSON = `[
  {
    "nodeId": "math.Add",
    "baseType": "functions",
    "isPure": true,
    "name": "Add",
    "description": "",
    "inPins": [
      {"id": "a", "pinType": "argument", "name": "A", "description": "", "type": "int", "defaultValue": "0"},
      {"id": "b", "pinType": "argument", "name": "B", "description": "", "type": "int", "defaultValue": "0"}
    ],
    "outPins": [
      {"id": "result", "pinType": "argument", "name": "Result", "description": "", "type": "int"}
    ]
  }
]`

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFetchCatalog(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/nodes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, nodesJSON)
	})

	records, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "math.Add", records[0].NodeID)
	assert.Len(t, records[0].InPins, 2)

	cat, err := catalog.FromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestFetchCatalog_ServerError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchCatalog_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	defer c.Close()
	_, err := c.FetchCatalog(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestExecute_PostsSubmission(t *testing.T) {
	var got map[string]any
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/execute", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	sub := graph.Submission{Graphs: []graph.Payload{{
		Nodes: []graph.NodeRecord{{
			NodeTypeID: "math.Add",
			InstanceID: "n1",
			Arguments:  map[string]pintype.Literal{"a": pintype.NewLiteral(cty.NumberIntVal(4))},
		}},
		Connections: []graph.ConnectionRecord{},
	}}}
	require.NoError(t, c.Execute(context.Background(), sub))

	graphs, ok := got["graphs"].([]any)
	require.True(t, ok)
	require.Len(t, graphs, 1)
	nodes := graphs[0].(map[string]any)["nodes"].([]any)
	node := nodes[0].(map[string]any)
	assert.Equal(t, "math.Add", node["nodeId"])
	assert.Equal(t, "n1", node["uniqueId"])
	assert.Equal(t, 4.0, node["arguments"].(map[string]any)["a"])
}

func TestExecute_Rejected(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad graph", http.StatusBadRequest)
	})

	err := c.Execute(context.Background(), graph.Submission{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "bad graph")
}

func TestClient_ImplementsCatalogSource(t *testing.T) {
	var _ catalog.Source = (*Client)(nil)
	assert.Equal(t, "http://example.test", New("http://example.test").BaseURL())
}
