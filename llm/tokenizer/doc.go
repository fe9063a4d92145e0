// Package tokenizer counts and trims text by model tokens so prompt context
// stays inside a fixed budget.
package tokenizer
