/*
Package domain contains the core models of the vmchat assistant.

It describes what a chat turn is made of, independent of the language model,
the management API and the surfaces that carry the conversation. Nothing in
this package performs I/O.

# Key Entities

  - ActionDescriptor: a management operation parsed out of a model reply.
  - Capability: one entry of the contract offered to the model (action + parameters).
  - Interpretation: the tagged result of parsing a model reply (Descriptor, RawText or Error).
  - DispatchResult: the JSON value returned by the management API, or a structured error.
  - Error: a failure tagged with a closed ErrorKind.
  - TurnResult: the reply of one chat turn plus the intermediate results that produced it.
*/
package domain
