package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripassistant/llm"
)

func TestToolsCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newToolsCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())

	var tools []llm.Tool
	require.NoError(t, json.Unmarshal(out.Bytes(), &tools))
	require.Len(t, tools, 10)
	assert.Equal(t, llm.ToolTypeWebSearch, tools[0].Type)

	names := make([]string, 0, len(tools)-1)
	for _, tool := range tools[1:] {
		assert.Equal(t, llm.ToolTypeFunction, tool.Type)
		require.NotNil(t, tool.Parameters)
		if !strings.HasPrefix(tool.Name, "create_") {
			assert.Contains(t, tool.Parameters.Required, "record_id", "%s", tool.Name)
		}
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "create_activity")
	assert.Contains(t, names, "delete_transportation")
}
