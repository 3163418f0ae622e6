// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// routecheck — Routing Table Validator
//
// Standalone CLI tool that validates a case routing table against its
// schema and prints the normalized case-to-directory mappings. Run it
// after editing routes.json and before the next watcher run.
//
// Usage:
//
//	routecheck [--routes /etc/nefwatch/routes.json] [--case 1:24-cv-00123]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/docketdrop/nefwatch/internal/routing"
)

func main() {
	routesFlag := flag.String("routes", "/etc/nefwatch/routes.json", "Path to the routing table")
	caseFlag := flag.String("case", "", "Look up a single case number instead of listing all")
	flag.Parse()

	table, err := routing.LoadTable(*routesFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "routecheck: %s: %v\n", *routesFlag, err)
		os.Exit(2)
	}

	if *caseFlag != "" {
		dir, ok := table.Lookup(*caseFlag)
		if !ok {
			fmt.Fprintf(os.Stderr, "routecheck: no route for %q (would quarantine)\n", *caseFlag)
			os.Exit(1)
		}
		fmt.Println(dir)
		return
	}

	fmt.Printf("%s: %d case(s)\n", *routesFlag, table.Len())
	for _, caseID := range table.CaseIDs() {
		dir, _ := table.Lookup(caseID)
		fmt.Printf("  %-28s -> %s\n", caseID, dir)
	}
}
