// Package service assembles complete launcher endpoints from the
// lower-level packages.
//
// LauncherService is the device side: it owns the firing loop, the
// control listener, the optional browser panel, and the mDNS
// advertisement, and it pushes a state notification to every connected
// remote whenever the fire mode changes or a shot is issued.
//
// RemoteService is the operator side: it resolves a launcher (directly
// by address or by mDNS instance name), keeps the control connection
// alive with exponential-backoff reconnection, and re-exports the
// request surface of interaction.Client.
//
// # Device Usage
//
//	sim := hal.NewSimulator()
//	svc, err := service.NewLauncherService(sim, service.Config{
//		Name:         "Workbench Launcher",
//		SerialNumber: "VL-0001",
//	})
//	if err != nil {
//		return err
//	}
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	defer svc.Stop()
//
// # Remote Usage
//
//	remote, err := service.NewRemoteService(service.RemoteConfig{
//		Address: "192.168.1.50:8617",
//	})
//	if err != nil {
//		return err
//	}
//	if err := remote.Start(ctx); err != nil {
//		return err
//	}
//	defer remote.Stop()
//
//	text, err := remote.Fire(ctx)
//
// Stopping a LauncherService withdraws the advertisement, closes the
// panel and the control listener, stops the loop (which drives the
// launcher to the rest state), and finally parks the hardware.
package service
