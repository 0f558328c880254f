/*
Package workers sizes the decode context of the intake service.

Inside a container runtime.NumCPU reports the host's CPUs, not the cgroup
limit. GOMAXPROCS follows the limit, so worker counts here are derived from
it:

	decoders := workers.ForDecode(8) // one per CPU, at most 8

Image decoding is CPU-bound, so ForDecode uses one worker per CPU. ForRender
leaves headroom for the HTTP handlers by using half of the CPUs, and Count
takes an explicit multiplier for anything else.

# Environment Variable Override

DECODE_WORKERS replaces the computed value when it is a positive integer:

	env:
	- name: DECODE_WORKERS
	  value: "4"

The override is still capped by the limit passed in. Invalid values are
logged and ignored.
*/
package workers
