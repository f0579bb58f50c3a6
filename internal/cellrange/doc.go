// internal/cellrange/doc.go

/*
Package cellrange provides a structured representation of rectangular
selections inside a sheet.

Four textual forms are accepted:

	A1:C*       range between two cells, both inclusive
	column B    every cell of one column
	row 3       every cell of one row
	cell B2     a single cell, the keyword is optional

Columns are letters, rows are 1-based numbers and `*` stands for the last
column or row of whatever sheet the range is later bound to.
*/
package cellrange
