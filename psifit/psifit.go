/*

Psifit fits psychometric functions to binomial trial data by
maximum-likelihood or maximum-a-posteriori estimation and computes
goodness-of-fit statistics, thresholds and bootstrap confidence
intervals.

The input is a text file with one block per line: stimulus intensity,
number of correct responses and number of trials, e.g.

	0.5	12	20
	1.0	14	20
	1.5	18	20

The basic usage looks like this:

	psifit blocks.dat

, this fits a 2AFC logistic model with the downhill simplex optimizer.

You can change the model and the optimizer:

	psifit -nafc 1 -sigmoid gauss -core mw0.1 -method lbfgsb blocks.dat

To see all the options run:

	psifit -h

*/
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/psilab/psifit/boot"
	"bitbucket.org/psilab/psifit/checkpoint"
	"bitbucket.org/psilab/psifit/optimize"
	"bitbucket.org/psilab/psifit/psi"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("psifit")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("psifit", "psychometric function fitting").Version(version)

	// input data
	dataFileName = app.Arg("data", "trial blocks (intensity, correct, trials per line)").Required().ExistingFile()

	// model parameters
	nAFC    = app.Flag("nafc", "number of alternatives in the task (1 for yes/no)").Default("2").Int()
	sigmoid = app.Flag("sigmoid", "sigmoid type (logistic, gauss, gumbel)").Default("logistic").String()
	core    = app.Flag("core", "core type (ab, linear, mw<alpha>)").Default("ab").String()
	priors  = app.Flag("prior", "prior for the next parameter, in order; "+
		"flat, Uniform(a,b), Gauss(mu,sd), Gamma(shape,scale) or Beta(a,b)").Strings()
	exclude = app.Flag("exclude", "treat this block separately (outlier model)").Default("-1").Int()
	cuts    = app.Flag("cut", "performance level for threshold computation").Default("0.5").Float64List()

	// optimizer parameters
	iterations = app.Flag("iter", "maximum number of iterations").Default("10000").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	method     = app.Flag("method", "optimization method to use "+
		"(simplex: downhill simplex, "+
		"lbfgsb: limited-memory Broyden-Fletcher-Goldfarb-Shanno with bounding constraints, "+
		"annealing: simulated annealing, "+
		"none: just compute the objective, no optimization"+
		")").Default("simplex").Enum("simplex", "lbfgsb", "annealing", "none")
	startFlag = app.Flag("start", "starting point (whitespace-separated parameter values)").String()

	// bootstrap parameters
	nBoot         = app.Flag("boot", "number of bootstrap samples (0 disables the bootstrap)").Default("0").Int()
	nonparametric = app.Flag("nonparametric", "sample from observed proportions instead of the fitted model").Bool()
	checkpointF   = app.Flag("checkpoint", "bootstrap checkpoint file").String()
	checkpointT   = app.Flag("cinterval", "checkpoint save interval, seconds").Default("30").Float64()

	// technical
	seed = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	trajF    = app.Flag("traj", "write optimization trajectory to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// loadData reads trial blocks from a text file. Empty lines and lines
// starting with '#' are skipped.
func loadData(fn string) (*psi.Data, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var xs []float64
	var ks, ns []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("expected three columns, got %q", line)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, err
		}
		k, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, err
		}
		xs = append(xs, x)
		ks = append(ks, k)
		ns = append(ns, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return psi.NewData(xs, ks, ns)
}

// parseFloats converts a string of whitespace-separated floats into a
// slice.
func parseFloats(s string) ([]float64, error) {
	var result []float64
	for _, f := range strings.Fields(s) {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		result = append(result, x)
	}
	return result, nil
}

// newModel creates a model from the command-line parameters.
func newModel() (psi.Model, error) {
	s, err := psi.GetSigmoid(*sigmoid)
	if err != nil {
		return nil, err
	}
	c, err := psi.GetCore(*core, s)
	if err != nil {
		return nil, err
	}
	pm, err := psi.NewPsychometric(*nAFC, c, s)
	if err != nil {
		return nil, err
	}

	var m psi.Model = pm
	if *exclude >= 0 {
		log.Infof("Treating block %d separately (outlier model)", *exclude)
		m = psi.NewOutlierModel(pm, *exclude)
	}

	// the outlier model's explicit block probability always carries
	// a flat prior, so priors apply to the base parameters only
	if len(*priors) > pm.NParams() {
		return nil, fmt.Errorf("%d priors specified, but the model has %d parameters",
			len(*priors), pm.NParams())
	}
	for i, desc := range *priors {
		prior, err := psi.ParsePrior(desc)
		if err != nil {
			return nil, err
		}
		if prior != nil {
			if err := pm.SetPrior(i, prior); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// newOptimizer returns an optimizer from the method string.
func newOptimizer(rng *rand.Rand) (optimize.Optimizer, error) {
	switch *method {
	case "simplex":
		return optimize.NewSimplex(), nil
	case "lbfgsb":
		return optimize.NewLBFGSB(), nil
	case "annealing":
		return optimize.NewMH(rng, true, *iterations/5), nil
	case "none":
		return optimize.NewNone(), nil
	}
	return nil, fmt.Errorf("unknown optimization method: %s", *method)
}

// run performs the fit and optional bootstrap.
func run(rng *rand.Rand) (summary *FitSummary) {
	startTime := time.Now()
	summary = &FitSummary{}

	data, err := loadData(*dataFileName)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Read %d blocks", data.NBlocks())

	m, err := newModel()
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Model has %d parameters.", m.NParams())

	var start []float64
	if *startFlag != "" {
		start, err = parseFloats(*startFlag)
		if err != nil {
			log.Fatal("Error reading start position:", err)
		}
	} else {
		start = m.GetStart(data)
		log.Infof("Starting point: %v", start)
	}

	opt, err := newOptimizer(rng)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Using %s optimization.", *method)
	opt.WatchSignals(os.Interrupt, syscall.SIGTERM)
	opt.SetReportPeriod(*report)

	if *trajF != "" {
		f, err := os.Create(*trajF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer f.Close()
		opt.SetTrajectoryOutput(f)
	}

	est, err := psi.FitWith(opt, m, data, start, *iterations)
	if err != nil {
		log.Fatal(err)
	}
	summary.Optimizer = opt.Summary()
	summary.Estimate = est

	log.Noticef("Estimate: %v", est.Params)
	log.Noticef("Deviance: %v", est.Deviance)

	df := data.NBlocks() - m.NParams()
	if df > 0 {
		summary.GoodnessOfFit = psi.GoodnessOfFit(est.Deviance, df)
		log.Noticef("Goodness of fit: p=%.4f (df=%d)", summary.GoodnessOfFit, df)
	}

	res := m.DevianceResiduals(est.Params, data)
	summary.Rpd = m.Rpd(res, est.Params, data)
	summary.Rkd = m.Rkd(res, data)

	for _, cut := range *cuts {
		th := m.Threshold(est.Params, cut)
		log.Noticef("Threshold at %.2f: %v", cut, th)
		summary.Thresholds = append(summary.Thresholds, ThresholdSummary{Cut: cut, Threshold: th})
	}

	if *nBoot > 0 {
		bs, err := runBootstrap(m, data, est, rng)
		if err != nil {
			log.Fatal(err)
		}
		summary.Bootstrap = bs
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return summary
}

// runBootstrap runs the bootstrap and jackknife diagnostics.
func runBootstrap(m psi.Model, data *psi.Data, est *psi.Estimate, rng *rand.Rand) (*BootstrapSummary, error) {
	set := boot.DefaultSettings()
	set.NSamples = *nBoot
	set.Cuts = *cuts
	set.Parametric = !*nonparametric
	set.Iterations = *iterations

	if *checkpointF != "" {
		db, err := bolt.Open(*checkpointF, 0644, nil)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		set.Checkpoint = checkpoint.NewIO(db, []byte(*dataFileName), *checkpointT)
	}

	log.Noticef("Bootstrap with %d samples (parametric=%v)", set.NSamples, set.Parametric)
	r, err := boot.Bootstrap(m, data, est, set, rng)
	if err != nil {
		return nil, err
	}

	bs := &BootstrapSummary{NSamples: set.NSamples, Parametric: set.Parametric}
	ciLo := make([]float64, m.NParams())
	ciHi := make([]float64, m.NParams())
	for i := 0; i < m.NParams(); i++ {
		ciLo[i] = r.Percentile(0.025, i)
		ciHi[i] = r.Percentile(0.975, i)
		log.Noticef("Parameter %d: %v [%v, %v]", i, est.Params[i], ciLo[i], ciHi[i])
		bs.ParamCI = append(bs.ParamCI, Interval{Lower: ciLo[i], Upper: ciHi[i]})
	}
	for c, cut := range set.Cuts {
		lo := r.ThresholdPercentile(0.025, c)
		hi := r.ThresholdPercentile(0.975, c)
		log.Noticef("Threshold at %.2f: [%v, %v] (bias=%.3f, acc=%.3f)",
			cut, lo, hi, r.Bias[c], r.Acc[c])
		bs.ThresholdCI = append(bs.ThresholdCI, Interval{Lower: lo, Upper: hi})
		bs.Bias = append(bs.Bias, r.Bias[c])
		bs.Acc = append(bs.Acc, r.Acc[c])
	}

	outliers, influence, err := boot.Jackknife(m, data, est, set.Iterations, ciLo, ciHi)
	if err != nil {
		return nil, err
	}
	for i := range outliers {
		if outliers[i] {
			log.Warningf("Block %d looks like an outlier", i)
		}
	}
	bs.Outliers = outliers
	bs.Influence = influence

	return bs, nil
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "psifit")
	logging.SetLevel(level, "psi")
	logging.SetLevel(level, "optimize")
	logging.SetLevel(level, "boot")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)
	rng := rand.New(rand.NewSource(*seed))

	summary := run(rng)
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed
	summary.NThreads = runtime.GOMAXPROCS(0)

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
