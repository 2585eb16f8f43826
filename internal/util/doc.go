// Package util holds small helpers shared by agrimesh packages: JSON schema
// creation and validation for tool arguments, prompt templating and file
// naming for synthesized audio.
package util
