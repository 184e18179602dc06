package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/device-auth-server/devices"
	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage registered devices",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a device and its shared key",
	Long: `Register (or update) a device in the registry and store the shared key it
signs its handshake with. Requires a persistent STORE_DRIVER.`,
	RunE: runRegisterCommand,
}

var (
	registerID       string
	registerName     string
	registerSecret   string
	registerInactive bool
)

func init() {
	registerCmd.Flags().StringVar(&registerID, "id", "", "Device ID (required)")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerSecret, "secret", "", "Shared key used to sign handshakes (required)")
	registerCmd.Flags().BoolVar(&registerInactive, "inactive", false, "Register the credential as inactive")
	_ = registerCmd.MarkFlagRequired("id")
	_ = registerCmd.MarkFlagRequired("secret")

	deviceCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(deviceCmd)
}

func runRegisterCommand(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	stores, err := openStores(ctx, c)
	if err != nil {
		return err
	}
	defer stores.Close()

	return registerDevice(ctx, stores, registerID, registerName, []byte(registerSecret), !registerInactive, time.Now())
}

func registerDevice(ctx context.Context, s *stores, id, name string, secret []byte, active bool, now time.Time) error {
	if !s.persistent {
		return errors.New("device register needs a persistent STORE_DRIVER (sqlite or postgres)")
	}
	if id == "" || len(secret) == 0 {
		return errors.New("device id and secret are required")
	}

	if err := s.devices.Upsert(ctx, &devices.Device{ID: id, Name: name, CreatedAt: now.UTC()}); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	if err := s.credentials.UpsertCredential(ctx, &devices.Credential{DeviceID: id, SharedKey: secret, Active: active}); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	log.Info().Str("device_id", id).Bool("active", active).Msg("Device registered")
	return nil
}
