package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [question]", queryCmd.Use)
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_HasTopKFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "k", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestQueryCmd_ExecutesWithQuestion(t *testing.T) {
	_, retrieval, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "what is force?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "what is force?", retrieval.lastQuery)
	assert.Contains(t, buf.String(), "Contexts:")
	assert.Contains(t, buf.String(), "page 3")
	assert.Contains(t, buf.String(), "Newton's second law")
}

func TestQueryCmd_PassesFlagsToService(t *testing.T) {
	_, retrieval, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "-k", "3", "--source", "physics.pdf", "energy"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryTopK = 5
		querySource = ""
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, 3, retrieval.lastOpts.TopK)
	assert.Equal(t, "physics.pdf", retrieval.lastOpts.Source)
}

func TestQueryCmd_JSONOutput(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "--json", "what is force?"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"contexts\"")
	assert.Contains(t, buf.String(), "\"page_number\"")
	assert.Contains(t, buf.String(), "\"similarity_score\"")
}

func TestQueryCmd_SoftFailureShownNotRaised(t *testing.T) {
	_, retrieval, cleanup := setupTestServices()
	defer cleanup()
	retrieval.resp = &domain.RetrievalResponse{Error: "similarity search failed"}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Retrieval failed: similarity search failed")
}

func TestQueryCmd_InvalidQueryIsAnError(t *testing.T) {
	_, retrieval, cleanup := setupTestServices()
	defer cleanup()
	retrieval.err = domain.ErrInvalidQuery

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query", "   "})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidQuery)
}

func TestQueryCmd_NoMatches(t *testing.T) {
	_, retrieval, cleanup := setupTestServices()
	defer cleanup()
	retrieval.resp = &domain.RetrievalResponse{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "something obscure"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No matching passages found.")
}
