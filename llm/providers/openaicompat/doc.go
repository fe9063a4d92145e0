// Package openaicompat implements llm.Provider for OpenAI-compatible chat
// completion APIs (OpenAI, DeepSeek, Groq, Gemini's OpenAI endpoint and
// local servers such as Ollama).
package openaicompat
