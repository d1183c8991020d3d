// Package normalisers converts source files into ordered pages of plain
// text ready for chunking. Each subpackage handles one input format.
package normalisers
