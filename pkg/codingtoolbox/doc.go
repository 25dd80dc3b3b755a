// Package codingtoolbox provides the built-in tools agents use to interact
// with the local environment.
//
//   - [github.com/germanamz/softhouse/pkg/codingtoolbox/filesystem]: create_folder, write_file, read_file and list_dir
package codingtoolbox
