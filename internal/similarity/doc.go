// Package similarity scores visual similarity between frame thumbnails and
// turns the scores into split points for unattended batch splitting.
//
// Three scorers are available: a grayscale histogram comparison using the
// Bhattacharyya coefficient, a global SSIM measure, and a mean absolute
// frame difference. All return similarity in [0, 1] where 1 is identical.
package similarity
