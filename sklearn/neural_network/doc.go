/*
Package neural_network implements small feed-forward networks on gonum
matrices: dense and activation layers, the Adam optimizer, categorical
cross-entropy and a Sequential container with a minibatch fit loop.

The language-identification network is built by BuildMLP:

	input (D,) -> Dense(512, relu) -> Dense(C, linear) -> Activation(softmax)

Example:

	net, err := neural_network.BuildMLP(nClasses, []int{width},
		neural_network.WithHiddenUnits(512),
		neural_network.WithSeed(42),
	)
	if err != nil {
		return err
	}
	adam, err := neural_network.NewAdam(0.0001)
	if err != nil {
		return err
	}
	if err := net.Compile(adam, neural_network.LossCategoricalCrossEntropy, "accuracy"); err != nil {
		return err
	}
	history, err := net.Fit(ctx, Xtrain, Ytrain, neural_network.FitOptions{
		Epochs:         20,
		BatchSize:      32,
		Shuffle:        true,
		ValidationData: &neural_network.ValidationData{X: Xval, Y: Yval},
	})

Training mutates the network and is not safe for concurrent use. Predict
does not touch training caches and may run concurrently with other Predict
calls.
*/
package neural_network
