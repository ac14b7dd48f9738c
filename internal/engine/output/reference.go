package output

// ReferenceKind discriminates Reference variants.
type ReferenceKind string

const (
	ReferenceSQLQuery  ReferenceKind = "sql_query"
	ReferenceRetrieval ReferenceKind = "retrieval"
	ReferenceDataApp   ReferenceKind = "data_app"
)

// Reference carries citation/UX metadata surfaced alongside an
// OutputContainer's output, per spec §3.
type Reference struct {
	Kind ReferenceKind

	// SqlQuery fields.
	SQL       string
	Database  string
	Result    *Table
	Truncated bool

	// Retrieval fields.
	Documents []Document

	// DataApp fields.
	Path string
}

// SQLQueryReference builds a SqlQuery reference.
func SQLQueryReference(sql, database string, result *Table, truncated bool) Reference {
	return Reference{Kind: ReferenceSQLQuery, SQL: sql, Database: database, Result: result, Truncated: truncated}
}

// RetrievalReference builds a Retrieval reference.
func RetrievalReference(docs []Document) Reference {
	return Reference{Kind: ReferenceRetrieval, Documents: docs}
}

// DataAppReference builds a DataApp reference.
func DataAppReference(path string) Reference {
	return Reference{Kind: ReferenceDataApp, Path: path}
}

// SearchRecord is a transient retrieval hit: a document plus its distance
// and optional derived scores.
type SearchRecord struct {
	Document       Document
	Distance       float64
	Score          *float64
	RelevanceScore *float64
}
