package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - Interview, TechStack from interview.go
// - Feedback, CategoryScores from feedback.go

// Database schema overview:
// 1. users - Managed by JWT-based authentication
// 2. refresh_tokens - Hashed refresh tokens per user
// 3. interviews - One row per interview definition, created either eagerly by
//    a generation request with AI-produced questions or lazily at the end of a
//    freeform dynamic call once the transcript exists
// 4. feedback - The AI evaluation of one completed interview; at most one row
//    per (interview, user) pair under normal operation
