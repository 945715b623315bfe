// Package services implements the core business logic of docq.
//
// Services implement the driving port interfaces and depend only on the
// driven port interfaces, never on concrete adapters. IngestService turns
// raw files into indexed documents; QueryService runs the staged retrieval
// pipeline over them.
package services
