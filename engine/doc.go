// Package engine runs the guest decoder on wazero.
//
// # Architecture
//
//	Engine   - wazero runtime, the "env" bridge module and the compiled guest
//	Instance - one guest instantiation with its own linear memory
//
// # Lifecycle
//
//  1. New compiles the guest and validates its ABI
//  2. Engine.Instantiate creates an anonymous Instance
//  3. Instance.Decode calls the guest's decode export under a bridge.Binding
//  4. Instance.Close releases the instance and its memory
//
// # Failures
//
// Decode never lets a guest failure escape as a panic. A fault raised by a
// host function wins over the trap it caused; any other call failure is
// reported as a module trap.
//
// Decode is synchronous and runs to completion. The call context is not
// watched for cancellation.
//
// # Thread Safety
//
// Engine is safe for concurrent use.
// Instance is NOT safe for concurrent use.
package engine
