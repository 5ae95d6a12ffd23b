// Package session serializes access to per-conversation contexts. Two turns
// for the same conversation are processed one at a time; turns for different
// conversations run fully concurrently. In multi-replica deployments an
// optional distributed locker extends the guarantee across processes.
package session
