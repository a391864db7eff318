package app

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/library-catalog/catalog/internal/importer"
)

func Test_writeSummary(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, "books.csv", false, importer.Stats{Rows: 5000, Imported: 5000, Authors: 1200}, nil)

	out := buf.String()
	require.Contains(t, out, "books.csv")
	require.Contains(t, out, "per-row")
	require.Contains(t, out, "5000")
	require.Contains(t, out, "1200")
	require.Contains(t, out, "ok")
}

func Test_writeSummary_Failure(t *testing.T) {
	var buf bytes.Buffer
	writeSummary(&buf, "books.csv", true, importer.Stats{Rows: 3}, errors.New("line 2: already exists"))

	out := buf.String()
	require.Contains(t, out, "atomic")
	require.Contains(t, out, "line 2: already exists")
}
