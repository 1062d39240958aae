// Package generationapi implements the generation-api service, the
// orchestration core behind the PixelForge dashboard's image, video and
// audio generation features.
//
// The service provides:
//   - A capability registry that probes configured backends and publishes
//     ranked snapshots of which models can serve which task
//   - A fallback chain executor with per-provider retry, transient versus
//     permanent failure classification, and a full attempt ledger
//   - Backend adapters for local GPU workers, OpenAI-compatible APIs and
//     Replicate-style hosted predictions
//   - A versioned HTTP API for generations, models and backend status
//   - Optional JWT authentication via a JWKS endpoint
package generationapi
