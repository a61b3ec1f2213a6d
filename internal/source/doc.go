// Package source decodes external tabular material (delimited text and
// Excel workbooks) into the in-memory Dataset model. The convention for
// which literal tokens denote a missing cell is explicit configuration,
// never guessed per cell.
package source
