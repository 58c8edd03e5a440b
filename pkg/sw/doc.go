// Package sw implements the offline cache lifecycle for the Northwest Bus
// site: a versioned cache region pre-populated from the asset manifest,
// cleanup of regions left by older versions, and cache-first request
// handling with network fallback.
//
// A Controller owns one version and exposes one handler per lifecycle
// signal:
//
//   - OnInstall: open the region and store every manifest entry, all or nothing
//   - OnActivate: delete every region whose name is not the controller's
//   - OnFetch: serve from any region, else forward to the network once
//   - OnMessage: {"type": "SKIP_WAITING"} requests immediate activation
//
// Registration is the host. It installs new controllers, keeps the
// installed one waiting while the active controller still has clients, and
// promotes it when the last client releases or skip-waiting is requested.
//
// # Basic Usage
//
//	name, _ := sw.CacheName("northwest-bus", "1.0.0")
//	ctrl, err := sw.New(sw.DefaultConfig(name, origin, storage, netClient))
//	if err != nil {
//		return err
//	}
//
//	reg := sw.NewRegistration(netClient)
//	if err := reg.Register(ctx, ctrl); err != nil {
//		// Install failed; the previous version keeps serving
//	}
//
//	client := reg.Acquire()
//	defer client.Release(ctx)
//	resp, err := reg.Fetch(req)
//
// Responses fetched from the network on a cache miss are never written
// back; the manifest is the only source of offline availability.
package sw
