/*
Package ports defines the driven ports (interfaces) of the vmchat assistant.

These interfaces decouple the turn pipeline from the remote services it talks
to and from the surfaces that keep chat transcripts.

# Key Interfaces

  - Completer: a language-model chat completion endpoint.
  - ManagementAPI: the virtual-machine management REST API.
  - HistoryStore: persists chat transcripts for surfaces that keep them (HTTP, REPL).
  - DistributedLocker: serializes turns of the same session across replicas.
  - TurnHandler: what surfaces call to run one chat turn.
*/
package ports
