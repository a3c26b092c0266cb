// Package env loads environment values for storyspec.
//
// It provides functionality for:
//   - Parsing .env files (KEY=value, quoted values, comments)
//   - ${VAR} and ${VAR:-default} interpolation in configuration text
//   - Reading prefixed process variables such as STORYSPEC_BASE_URL
package env
