package main

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kass/adi-polygon/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// readPayload returns the first argument, or stdin when no argument is given
func readPayload(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("no input: pass JSON as an argument or on stdin")
	}
	return data, nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func readPolygon(cmd *cobra.Command, args []string) (models.Polygon, error) {
	data, err := readPayload(cmd, args)
	if err != nil {
		return models.Polygon{}, err
	}
	var p models.Polygon
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Polygon{}, fmt.Errorf("invalid polygon: %w", err)
	}
	return p, nil
}

func newVerticesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vertices [polygon-json]",
		Short: "Convert a flat polygon to labeled corners",
		Long:  `Read a JSON array of 8 numbers [x1,y1,...,x4,y4] and print its top_left, top_right, bottom_right and bottom_left corners.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPolygon(cmd, args)
			if err != nil {
				return err
			}
			opts.log.WithField("polygon", p.Coords()).Debug("converting to vertices")
			return writeJSON(cmd, p.Vertices())
		},
	}
}

func newFlattenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten [vertices-json]",
		Short: "Convert labeled corners to a flat polygon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readPayload(cmd, args)
			if err != nil {
				return err
			}
			var v models.Vertices
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("invalid vertices: %w", err)
			}
			opts.log.WithField("top_left", v.TopLeft()).Debug("flattening vertices")
			return writeJSON(cmd, v.Polygon())
		},
	}
}

func newNudgeCmd(opts *options) *cobra.Command {
	var (
		corner string
		dx, dy float64
	)

	cmd := &cobra.Command{
		Use:   "nudge [polygon-json]",
		Short: "Move one corner of a flat polygon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := models.ParseCorner(corner)
			if err != nil {
				return err
			}
			p, err := readPolygon(cmd, args)
			if err != nil {
				return err
			}

			mv := p.Vertices().Mutable()
			pt := mv.Corner(c)
			pt.X += dx
			pt.Y += dy

			opts.log.WithFields(logrus.Fields{
				"corner": c.String(),
				"dx":     dx,
				"dy":     dy,
			}).Debug("nudged corner")
			return writeJSON(cmd, mv.Immutable().Polygon())
		},
	}

	cmd.Flags().StringVarP(&corner, "corner", "c", "top_left", "Corner to move (top_left, top_right, bottom_right, bottom_left)")
	cmd.Flags().Float64Var(&dx, "dx", 0, "Offset added to x")
	cmd.Flags().Float64Var(&dy, "dy", 0, "Offset added to y")
	return cmd
}
