package handlers

import "regexp"

// Notebook ids travel into vector store filter expressions, so they are
// restricted to a character set that cannot carry expression syntax.
var notebookIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validNotebookID(id string) bool {
	return notebookIDPattern.MatchString(id)
}
