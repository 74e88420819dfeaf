/*
Package compiler lowers multi-way integer switches.

Process of switch lowering

	Switch Sites Text ->
		parse (front) ->
	Switch Description (ir.Switch) ->
		estimate (strategy, hash) ->
	Alternatives (back) ->
		choose ->
	Decision ->
		emit (asm) ->
	Listing
*/
package compiler
