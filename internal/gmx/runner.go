package gmx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/claybuild/claybuild/internal/logging"
)

// nmPerAngstrom converts the Å lengths used internally to the nm units the
// engine command line expects.
const nmPerAngstrom = 0.1

// Runner executes engine subcommands through the configured gmx alias.
// It implements Engine.
type Runner struct {
	alias string
	log   *slog.Logger
}

// NewRunner returns a Runner invoking the given gmx alias (e.g. "gmx" or
// "gmx_mpi").
func NewRunner(alias string, log *slog.Logger) *Runner {
	if alias == "" {
		alias = "gmx"
	}
	return &Runner{alias: alias, log: log}
}

// run executes one engine subcommand and returns its combined stderr, where
// the engine writes its reports.
func (r *Runner) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.alias, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	report := stderr.String()
	r.log.Log(ctx, logging.LevelTrace, "engine call",
		"args", args, "stdout", stdout.String(), "stderr", report)
	if err != nil {
		return report, fmt.Errorf("%s %s: %w\n%s", r.alias, args[0], err, report)
	}
	return report, nil
}

// Solvate runs the engine's solvation subcommand and parses the inserted
// molecule count from its report.
func (r *Runner) Solvate(ctx context.Context, req SolvateRequest) (SolvateResult, error) {
	report, err := r.run(ctx, filepath.Dir(req.Output), solvateArgs(req)...)
	if err != nil {
		return SolvateResult{Report: report}, err
	}
	n, err := ParseSolvateCount(report)
	if err != nil {
		return SolvateResult{Report: report}, err
	}
	return SolvateResult{Inserted: n, Report: report}, nil
}

// solvateArgs builds the solvation command line, converting every length in
// the request from Å to nm. Scale is dimensionless and passes through.
func solvateArgs(req SolvateRequest) []string {
	if req.SolventBox == "" {
		req.SolventBox = "spc216"
	}
	args := []string{"solvate", "-cs", req.SolventBox, "-o", req.Output, "-p", req.Topology}
	if req.Structure != "" {
		args = append(args, "-cp", req.Structure)
	} else {
		args = append(args, "-box",
			ftoa(req.Box[0]*nmPerAngstrom),
			ftoa(req.Box[1]*nmPerAngstrom),
			ftoa(req.Box[2]*nmPerAngstrom))
	}
	if req.MaxSol > 0 {
		args = append(args, "-maxsol", strconv.Itoa(req.MaxSol))
	}
	if req.Scale > 0 {
		args = append(args, "-scale", ftoa(req.Scale))
	}
	if req.Radius > 0 {
		args = append(args, "-radius", ftoa(req.Radius*nmPerAngstrom))
	}
	return args
}

// InsertMolecules runs the engine's molecule-insertion subcommand and parses
// the placed count from its report.
func (r *Runner) InsertMolecules(ctx context.Context, req InsertRequest) (InsertResult, error) {
	args := []string{"insert-molecules",
		"-f", req.Structure,
		"-ci", req.Template,
		"-o", req.Output,
		"-nmol", strconv.Itoa(req.N),
	}
	if req.Positions != "" {
		args = append(args, "-ip", req.Positions)
	}
	if req.Replace != "" {
		args = append(args, "-replace", "resname "+req.Replace)
	}
	if req.Jitter != [3]float64{} {
		args = append(args, "-dr",
			ftoa(req.Jitter[0]*nmPerAngstrom),
			ftoa(req.Jitter[1]*nmPerAngstrom),
			ftoa(req.Jitter[2]*nmPerAngstrom))
	}
	report, err := r.run(ctx, filepath.Dir(req.Output), args...)
	if err != nil {
		return InsertResult{Report: report}, err
	}
	n, err := ParseInsertCount(report)
	if err != nil {
		return InsertResult{Report: report}, err
	}
	return InsertResult{Inserted: n, Report: report}, nil
}

// Minimize preprocesses and runs an energy minimization, classifying the
// outcome from the engine report. Engine-level failures are returned as
// errors and abort the pipeline.
func (r *Runner) Minimize(ctx context.Context, req EMRequest) (EMStatus, error) {
	params := EMDefaults()
	for k, v := range req.Params {
		params[k] = v
	}
	mdp := filepath.Join(req.OutDir, req.Name+".mdp")
	if err := WriteMDP(mdp, params, req.FreezeGroups, req.FreezeDims); err != nil {
		return EMNotConverged, err
	}
	tpr := filepath.Join(req.OutDir, req.Name+".tpr")
	gromppArgs := []string{"grompp",
		"-f", mdp,
		"-c", req.Structure,
		"-p", req.Topology,
		"-o", tpr,
		"-po", filepath.Join(req.OutDir, req.Name+"_out.mdp"),
	}
	if req.MaxWarn > 0 {
		gromppArgs = append(gromppArgs, "-maxwarn", strconv.Itoa(req.MaxWarn))
	}
	if _, err := r.run(ctx, req.OutDir, gromppArgs...); err != nil {
		return EMNotConverged, fmt.Errorf("preprocess minimization: %w", err)
	}
	report, err := r.run(ctx, req.OutDir, "mdrun",
		"-s", tpr,
		"-deffnm", req.Name,
		"-v")
	if err != nil {
		return EMNotConverged, fmt.Errorf("run minimization: %w", err)
	}
	return ParseEMStatus(report)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
