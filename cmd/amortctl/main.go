/*
main.go - amortctl, offline command-line access to the engines

PURPOSE:
  Runs the schedule generator, the depreciation calculator and the
  settlement check without a server or database. Handy for checking a
  contract plan or an asset's book value before entering it.

COMMANDS:
  preview     Default installment plan for a total, count and start date
  depreciate  Depreciation metrics of one asset at a date
  project     Year-by-year depreciation schedule of one asset
  settle      Dry-run a settlement against an account balance

EXAMPLES:
  amortctl preview --total 1000 --count 3 --start 2024-01-31
  amortctl depreciate --initial 10000 --residual 1000 --acquired 2020-01-15 \
      --life 60 --method DECLINING_BALANCE --as-of 2023-01-15
  amortctl project --initial 10000 --life 48 --method SUM_OF_YEARS --acquired 2024-01-01
  amortctl settle --base 100 --interest 5 --balance 50

SEE ALSO:
  - commands.go: command definitions
*/
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
