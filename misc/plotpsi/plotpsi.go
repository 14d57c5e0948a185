// Plotpsi fits a psychometric function to a block file and plots the
// observed proportions together with the fitted curve.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/psilab/psifit/psi"
)

func readBlocks(fn string) (*psi.Data, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var xs []float64
	var ks, ns []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
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

func main() {
	nAFC := flag.Int("nafc", 2, "number of alternatives")
	sigmoidName := flag.String("sigmoid", "logistic", "sigmoid type")
	coreName := flag.String("core", "ab", "core type")
	out := flag.String("o", "psi.png", "output file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: plotpsi [options] blocks.dat")
		os.Exit(1)
	}

	data, err := readBlocks(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	s, err := psi.GetSigmoid(*sigmoidName)
	if err != nil {
		log.Fatal(err)
	}
	c, err := psi.GetCore(*coreName, s)
	if err != nil {
		log.Fatal(err)
	}
	m, err := psi.NewPsychometric(*nAFC, c, s)
	if err != nil {
		log.Fatal(err)
	}

	est, err := psi.Fit(m, data, nil, 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(est.Params)

	p, err := plot.New()
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "intensity"
	p.Y.Label.Text = "p(correct)"

	pts := make(plotter.XYs, data.NBlocks())
	xmin, xmax := data.Intensity(0), data.Intensity(0)
	for i := range pts {
		pts[i].X = data.Intensity(i)
		pts[i].Y = data.Proportion(i)
		if pts[i].X < xmin {
			xmin = pts[i].X
		}
		if pts[i].X > xmax {
			xmax = pts[i].X
		}
	}

	const ncurve = 200
	curve := make(plotter.XYs, ncurve)
	for i := range curve {
		x := xmin + (xmax-xmin)*float64(i)/(ncurve-1)
		curve[i].X = x
		curve[i].Y = m.Evaluate(x, est.Params)
	}

	err = plotutil.AddScatters(p, "data", pts)
	if err != nil {
		panic(err)
	}
	err = plotutil.AddLines(p, "fit", curve)
	if err != nil {
		panic(err)
	}

	if err := p.Save(4*vg.Inch, 4*vg.Inch, *out); err != nil {
		panic(err)
	}
}
