/*
Package vmchat is a conversational front-end for a virtual-machine management API.

Each chat turn runs a three-stage pipeline: a language model interprets the
request into an action descriptor, the descriptor is dispatched as a single
REST call against a vCenter-style management API, and the model narrates the
API response back to the user.

# Concept

The core is stateless. One turn in, one reply out:

  - Interpret: the user text and a fixed capability contract are sent to an
    OpenAI-compatible completion endpoint. A JSON object reply becomes an
    action descriptor; anything else is surfaced as-is ("AI Response: ...").
  - Dispatch: list_vms, get_vm_details and manage_power map onto GET /vms,
    GET /vm_details and POST /vms/power. Descriptors with an unknown action or
    missing parameters never reach the network.
  - Compose: the descriptor and the API response are narrated by the model.

Surfaces that keep transcripts (the HTTP API and the terminal chat) layer a
session manager and a history store on top of the Assistant.

# Usage

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	assistant, err := vmchat.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	reply := assistant.HandleTurn(ctx, "restart vm1", nil)
	fmt.Println(reply)

# Observability

Register domain.LifecycleHooks with WithLifecycleHooks to receive an event
after each stage and after each turn. The metrics package turns them into
Prometheus collectors.
*/
package vmchat
