package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/midistream/internal/logger"
	"github.com/leandrodaf/midistream/sdk/contracts"
	"github.com/leandrodaf/midistream/sdk/stream"
)

func main() {
	log := logger.NewZapLogger()

	in, err := stream.NewInput(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithIngestionFlags(contracts.IngestionFlags{
			SuppressTiming:        true,
			SuppressActiveSensing: true,
		}),
	)
	if err != nil {
		log.Error("Failed to open MIDI input", log.Field().Error("error", err))
		return
	}
	defer in.Close()

	devices, err := in.ListDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	if err = in.SelectDevice(0); err != nil {
		log.Error("Failed to select MIDI device", log.Field().Error("error", err))
		return
	}

	err = in.SetCallback(func(delta float64, payload []byte) {
		log.Info("MIDI message",
			log.Field().Float64("delta", delta),
			log.Field().Int("bytes", len(payload)),
			log.Field().Uint8("status", payload[0]),
		)
	})
	if err != nil {
		log.Error("Failed to set callback", log.Field().Error("error", err))
		return
	}

	if err = in.StartCapture(); err != nil {
		log.Error("Failed to start capture", log.Field().Error("error", err))
		return
	}

	fmt.Println("Capturing MIDI messages... Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig

	if err = in.StopCapture(); err != nil {
		log.Error("Failed to stop capture", log.Field().Error("error", err))
	}
}
