// Package hcl_adapter implements config.Loader for pipeline files written in
// HCL.
//
// A pipeline file holds four kinds of top-level blocks:
//
//	variable "sourceUrl" {
//	  type    = text
//	  default = "https://example.com/cars.csv"
//	}
//
//	constraint "ZeroToHundred" "RangeConstraint" {
//	  lowerBound = 0
//	  upperBound = 100
//	}
//
//	valuetype "Percent" {
//	  base        = decimal
//	  constraints = [ZeroToHundred]
//	}
//
//	pipeline "Cars" {
//	  block "CarsExtractor" "HttpExtractor" {
//	    url = var.sourceUrl
//	  }
//	  block "CarsInterpreter" "CSVInterpreter" {}
//	  pipe {
//	    chain = [CarsExtractor, CarsInterpreter]
//	  }
//	}
//
// Property values are translated into expr trees. Besides the HCL operators,
// the functions sqrt, floor, ceil, round, lowercase, uppercase, pow, root,
// matches, in and xor map onto the expression operators of the same name,
// and range, column, row and cell build cell range literals.
package hcl_adapter
